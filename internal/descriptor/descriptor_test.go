package descriptor_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/guludo/yape/internal/descriptor"
)

func TestEncodeIsDeterministicForEqualDescriptors(t *testing.T) {
	d1 := descriptor.Descriptor{
		{Tag: descriptor.OpType, Str: "Call"},
		{Tag: descriptor.DictTag, Strs: []string{"a", "b"}},
	}
	d2 := descriptor.Descriptor{
		{Tag: descriptor.OpType, Str: "Call"},
		{Tag: descriptor.DictTag, Strs: []string{"a", "b"}},
	}
	require.Equal(t, descriptor.Encode(d1), descriptor.Encode(d2))
}

func TestEncodeDiffersWhenContentDiffers(t *testing.T) {
	d1 := descriptor.Descriptor{{Tag: descriptor.OpType, Str: "Call"}}
	d2 := descriptor.Descriptor{{Tag: descriptor.OpType, Str: "GetAttr"}}
	require.NotEqual(t, descriptor.Encode(d1), descriptor.Encode(d2))
}

func TestHashIsStableHexSHA256(t *testing.T) {
	d := descriptor.Descriptor{{Tag: descriptor.DataOp, Bytes: []byte("x")}}
	h1 := descriptor.Hash(d)
	h2 := descriptor.Hash(d)
	require.Equal(t, h1, h2)
	require.Len(t, h1, 64)
}

func TestEncodeValueRoundTripsPrimitives(t *testing.T) {
	b, err := descriptor.EncodeValue(42)
	require.NoError(t, err)
	require.NotEmpty(t, b)
}

func TestEncodeValueNilIsNilBytes(t *testing.T) {
	b, err := descriptor.EncodeValue(nil)
	require.NoError(t, err)
	require.Nil(t, b)
}
