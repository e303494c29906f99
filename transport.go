package jupyterkit

import (
	"encoding/binary"
	"io"

	"github.com/vmihailenco/msgpack/v5"
)

// Serializer defines the interface for message encoding and decoding between
// Go and the Python helper process. The default implementation uses
// MessagePack for efficient binary serialization.
type Serializer interface {
	// Marshal encodes a Go value to bytes.
	Marshal(v interface{}) ([]byte, error)

	// Unmarshal decodes bytes into a Go value.
	Unmarshal(data []byte, v interface{}) error
}

// Transport defines the interface for sending and receiving byte messages.
// Implementations handle the wire protocol (framing, buffering).
type Transport interface {
	// Send transmits a message to the remote endpoint.
	Send(data []byte) error

	// Receive reads a complete message from the remote endpoint.
	Receive() ([]byte, error)

	// Close releases transport resources and closes underlying connections.
	Close() error
}

// MsgpackSerializer implements Serializer with MessagePack.
type MsgpackSerializer struct{}

// Marshal encodes a Go value with MessagePack.
func (ms MsgpackSerializer) Marshal(v interface{}) ([]byte, error) {
	return msgpack.Marshal(v)
}

// Unmarshal decodes MessagePack bytes into a Go value.
func (ms MsgpackSerializer) Unmarshal(data []byte, v interface{}) error {
	return msgpack.Unmarshal(data, v)
}

// PipeTransport frames messages with a 4-byte big-endian length prefix over a
// reader/writer pair, typically the stdin/stdout pipes of the helper process.
// The Python side mirrors the framing with struct.pack(">I", ...).
type PipeTransport struct {
	reader     io.ReadCloser
	writer     io.WriteCloser
	bufferPool *BufferPool
}

// NewPipeTransport creates a transport over the given pipe ends.
func NewPipeTransport(reader io.ReadCloser, writer io.WriteCloser) *PipeTransport {
	return &PipeTransport{
		reader: reader,
		writer: writer,
		// Same frame buffer size as the Python side.
		bufferPool: NewBufferPool(8192, 10),
	}
}

// Send writes one length-prefixed frame.
func (pt *PipeTransport) Send(data []byte) error {
	lengthBytes := pt.bufferPool.Get()[:4]
	binary.BigEndian.PutUint32(lengthBytes, uint32(len(data)))

	if _, err := pt.writer.Write(lengthBytes); err != nil {
		pt.bufferPool.Put(lengthBytes)
		return err
	}
	pt.bufferPool.Put(lengthBytes)

	_, err := pt.writer.Write(data)
	return err
}

// Receive reads one length-prefixed frame.
func (pt *PipeTransport) Receive() ([]byte, error) {
	lengthBuf := pt.bufferPool.Get()[:4]
	if _, err := io.ReadFull(pt.reader, lengthBuf); err != nil {
		pt.bufferPool.Put(lengthBuf)
		return nil, err
	}
	length := binary.BigEndian.Uint32(lengthBuf)
	pt.bufferPool.Put(lengthBuf)

	if length <= uint32(pt.bufferPool.bufSize) {
		buf := pt.bufferPool.Get()[:length]
		if _, err := io.ReadFull(pt.reader, buf); err != nil {
			pt.bufferPool.Put(buf)
			return nil, err
		}
		// Copy out so the frame buffer can go back to the pool.
		result := make([]byte, length)
		copy(result, buf)
		pt.bufferPool.Put(buf)
		return result, nil
	}

	data := make([]byte, length)
	_, err := io.ReadFull(pt.reader, data)
	return data, err
}

// Close closes both pipe ends.
func (pt *PipeTransport) Close() error {
	if err := pt.reader.Close(); err != nil {
		pt.writer.Close()
		return err
	}
	return pt.writer.Close()
}
