package shipwire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVarUint32RoundTrip(t *testing.T) {
	for _, v := range []uint32{0, 1, 127, 128, 300, 16384, 1<<21 - 1, ^uint32(0)} {
		e := NewEncoder()
		e.WriteVarUint32(v)

		d := NewDecoder(e.Bytes())
		got, err := d.ReadVarUint32()
		require.NoError(t, err)
		assert.Equal(t, v, got)
		assert.Equal(t, 0, d.Remaining())
	}
}

func TestFixedWidthRoundTrip(t *testing.T) {
	e := NewEncoder()
	e.WriteByte(0x7f)
	e.WriteBool(true)
	e.WriteUint16(0xbeef)
	e.WriteUint32(0xdeadbeef)
	e.WriteUint64(0x0102030405060708)
	e.WriteName(6138663577826885632)

	d := NewDecoder(e.Bytes())

	b, err := d.ReadByte()
	require.NoError(t, err)
	assert.Equal(t, byte(0x7f), b)

	ok, err := d.ReadBool()
	require.NoError(t, err)
	assert.True(t, ok)

	u16, err := d.ReadUint16()
	require.NoError(t, err)
	assert.Equal(t, uint16(0xbeef), u16)

	u32, err := d.ReadUint32()
	require.NoError(t, err)
	assert.Equal(t, uint32(0xdeadbeef), u32)

	u64, err := d.ReadUint64()
	require.NoError(t, err)
	assert.Equal(t, uint64(0x0102030405060708), u64)

	name, err := d.ReadName()
	require.NoError(t, err)
	assert.Equal(t, uint64(6138663577826885632), name)

	assert.Equal(t, 0, d.Remaining())
}

func TestBytesAndStringRoundTrip(t *testing.T) {
	e := NewEncoder()
	e.WriteBytes([]byte{0xca, 0xfe})
	e.WriteString("hello")
	e.WriteBytes(nil)

	d := NewDecoder(e.Bytes())

	b, err := d.ReadBytes()
	require.NoError(t, err)
	assert.Equal(t, []byte{0xca, 0xfe}, b)

	s, err := d.ReadString()
	require.NoError(t, err)
	assert.Equal(t, "hello", s)

	empty, err := d.ReadBytes()
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestChecksum256RoundTrip(t *testing.T) {
	var digest [32]byte
	for i := range digest {
		digest[i] = byte(i)
	}

	e := NewEncoder()
	e.WriteFixed(digest[:])

	d := NewDecoder(e.Bytes())
	got, err := d.ReadChecksum256()
	require.NoError(t, err)
	assert.Equal(t, digest, got)
}

func TestShortBufferErrors(t *testing.T) {
	d := NewDecoder([]byte{0x01})
	_, err := d.ReadUint32()
	assert.ErrorIs(t, err, ErrShortBuffer)

	d = NewDecoder([]byte{0x05, 0x01})
	_, err = d.ReadBytes()
	assert.ErrorIs(t, err, ErrShortBuffer)

	d = NewDecoder(nil)
	_, err = d.ReadByte()
	assert.ErrorIs(t, err, ErrShortBuffer)
}

func TestVarUint32Overflow(t *testing.T) {
	d := NewDecoder([]byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff})
	_, err := d.ReadVarUint32()
	assert.Error(t, err)
}
