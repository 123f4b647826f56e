package audio

import (
	"bytes"
	"testing"
)

func TestRingBuffer_Write(t *testing.T) {
	rb := NewRingBuffer(10)

	data := []byte{1, 2, 3, 4, 5}
	written := rb.Write(data)
	if written != 5 {
		t.Errorf("Expected to write 5 bytes, got %d", written)
	}
	if rb.Available() != 5 {
		t.Errorf("Expected available 5, got %d", rb.Available())
	}

	written = rb.Write([]byte{6, 7, 8})
	if written != 3 {
		t.Errorf("Expected to write 3 bytes, got %d", written)
	}
	if rb.Available() != 8 {
		t.Errorf("Expected available 8, got %d", rb.Available())
	}
}

func TestRingBuffer_WriteOverflow(t *testing.T) {
	rb := NewRingBuffer(5)

	written := rb.Write([]byte{1, 2, 3, 4, 5})
	if written != 5 {
		t.Errorf("Expected to write 5 bytes, got %d", written)
	}
	if !rb.IsFull() {
		t.Error("Expected buffer to be full")
	}

	written = rb.Write([]byte{6, 7})
	if written != 0 {
		t.Errorf("Expected to write 0 bytes to a full buffer, got %d", written)
	}
	if rb.Available() != 5 {
		t.Errorf("Expected available 5 after overflow, got %d", rb.Available())
	}
}

func TestRingBuffer_Read(t *testing.T) {
	rb := NewRingBuffer(10)
	rb.Write([]byte{1, 2, 3, 4, 5})

	readBuf := make([]byte, 3)
	read := rb.Read(readBuf)
	if read != 3 {
		t.Errorf("Expected to read 3 bytes, got %d", read)
	}
	if !bytes.Equal(readBuf, []byte{1, 2, 3}) {
		t.Errorf("Read incorrect data: %v", readBuf)
	}
	if rb.Available() != 2 {
		t.Errorf("Expected available 2 after read, got %d", rb.Available())
	}
}

func TestRingBuffer_ReadEmpty(t *testing.T) {
	rb := NewRingBuffer(10)

	if !rb.IsEmpty() {
		t.Error("Expected buffer to be empty initially")
	}

	readBuf := make([]byte, 4)
	if read := rb.Read(readBuf); read != 0 {
		t.Errorf("Expected to read 0 bytes from empty buffer, got %d", read)
	}
}

func TestRingBuffer_Wraparound(t *testing.T) {
	rb := NewRingBuffer(8)

	// Advance the read/write positions past the middle
	rb.Write([]byte{1, 2, 3, 4, 5, 6})
	tmp := make([]byte, 6)
	rb.Read(tmp)

	// This write wraps around the end of the underlying slice
	data := []byte{10, 11, 12, 13, 14}
	if written := rb.Write(data); written != 5 {
		t.Fatalf("Expected to write 5 bytes, got %d", written)
	}

	out := make([]byte, 5)
	if read := rb.Read(out); read != 5 {
		t.Fatalf("Expected to read 5 bytes, got %d", read)
	}
	if !bytes.Equal(out, data) {
		t.Errorf("Wraparound corrupted data: got %v, want %v", out, data)
	}
}

func TestRingBuffer_Clear(t *testing.T) {
	rb := NewRingBuffer(10)
	rb.Write([]byte{1, 2, 3})

	rb.Clear()
	if !rb.IsEmpty() {
		t.Error("Expected buffer to be empty after Clear")
	}
	if rb.Space() != 10 {
		t.Errorf("Expected space 10 after Clear, got %d", rb.Space())
	}
}
