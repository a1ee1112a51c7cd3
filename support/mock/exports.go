package mock

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// CheckActorExports checks that every exported method is a valid actor method and that
// methods are exported at contiguous indices starting from the constructor.
func CheckActorExports(t *testing.T, act interface{ Exports() []interface{} }) {
	for i, m := range act.Exports() {
		if i == 0 { // Send is implicit
			assert.Nil(t, m)
			continue
		}

		if !assert.NotNil(t, m, "method %d is nil", i) {
			continue
		}

		meth := reflect.ValueOf(m)
		mt := meth.Type()
		require.Equal(t, reflect.Func, mt.Kind(), "method %d is not a function", i)
		require.Equal(t, 2, mt.NumIn(), "method %d should take two parameters", i)
		require.Equal(t, typeOfRuntimeInterface, mt.In(0), "method %d should take a runtime as its first parameter", i)
		require.True(t, mt.In(1).Implements(typeOfCborUnmarshaler), "method %d second parameter must be CBOR-unmarshalable", i)
		require.Equal(t, 1, mt.NumOut(), "method %d should return a single value", i)
		require.True(t, mt.Out(0).Implements(typeOfCborMarshaler), "method %d must return a CBOR-marshalable value", i)
	}
}
