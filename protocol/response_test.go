package protocol

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResponseEncodeDecode(t *testing.T) {
	resp := NewOKResponse(&FileInfo{Filename: "a.bin", Filesize: 1024})
	text, err := resp.Encode()
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"OK","data":{"filename":"a.bin","filesize":1024}}`, text)

	decoded, err := DecodeResponse(text)
	require.NoError(t, err)
	assert.True(t, decoded.OK())

	info, ok := decoded.FileInfo()
	require.True(t, ok, "GET response should carry file info")
	assert.Equal(t, "a.bin", info.Filename)
	assert.Equal(t, uint64(1024), info.Filesize)
}

func TestResponseDecodeWithTrailingWhitespace(t *testing.T) {
	decoded, err := DecodeResponse("  {\"status\":\"OK\",\"data\":\"Uploaded a.bin\"}\r\n")
	require.NoError(t, err)
	assert.True(t, decoded.OK())
	assert.Equal(t, "Uploaded a.bin", decoded.Message())
}

func TestResponseErrorShape(t *testing.T) {
	resp := NewErrorResponse(MsgFileNotFound)
	text, err := resp.Encode()
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"ERROR","data":"File not found"}`, text)

	decoded, err := DecodeResponse(text)
	require.NoError(t, err)
	assert.False(t, decoded.OK())
	assert.Equal(t, "File not found", decoded.Message())

	_, ok := decoded.FileInfo()
	assert.False(t, ok, "error responses never announce a payload")
}

func TestResponseFileInfoAbsentForConfirmation(t *testing.T) {
	decoded, err := DecodeResponse(`{"status":"OK","data":"Uploaded a.bin"}`)
	require.NoError(t, err)
	_, ok := decoded.FileInfo()
	assert.False(t, ok, "upload confirmations carry no filesize")
}

func TestDecodeResponseInvalidJSON(t *testing.T) {
	_, err := DecodeResponse("not json at all")
	require.Error(t, err)

	var terr *TransferError
	assert.True(t, errors.As(err, &terr))
}

func TestResponseMessageMapping(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{ErrMalformedRequest, "Invalid command format"},
		{ErrInvalidFilename, "Invalid filename"},
		{ErrInvalidSize, "Invalid file size"},
		{ErrUnknownCommand, "Invalid command"},
		{ErrFileNotFound, "File not found"},
		{ErrSizeMismatch, "File size smaller than received data"},
		{ErrIncompleteTransfer, "Incomplete file received"},
		{errors.New("disk on fire"), "disk on fire"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ResponseMessage(tt.err))
	}

	// Wrapped errors keep their wire message.
	wrapped := &TransferError{Op: "upload", File: "a.bin", Err: ErrIncompleteTransfer}
	assert.Equal(t, "Incomplete file received", ResponseMessage(wrapped))
}
