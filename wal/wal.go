package wal

import (
	"encoding/binary"
	"errors"
	"io"
	"os"

	jujuerrors "github.com/juju/errors"
	"github.com/sirupsen/logrus"
)

// Log is an append-only, length-prefixed redo log file. Every frame is a
// u32-LE length prefix followed by that many bytes of Encode(record).
// Appends are buffered in the OS file; Sync forces them to stable storage
// before the caller may consider the record durable (spec §4.4 "Append
// must be followed by an fsync before the corresponding change is
// considered durable").
type Log struct {
	file *os.File
	path string
}

// ErrCorruptRecord is returned (wrapped in Error) by Replay when an
// interior frame fails to decode: a partial write mid-file can only
// happen from a real corruption, never from a crash during append, since
// appends only ever grow the file at the tail (spec §4.4 "WAL corruption
// classification").
var ErrCorruptRecord = errors.New("wal: corrupt record")

// Error wraps an underlying WAL error with the operation that produced
// it, in the teacher's {Op, Err} shape (storage/bufferpool.Error).
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Op
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// IsCorrupt reports whether err is or wraps ErrCorruptRecord.
func IsCorrupt(err error) bool { return errors.Is(err, ErrCorruptRecord) }

// Open opens (creating if absent) the log file at path for appending.
func Open(path string) (*Log, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		return nil, jujuerrors.Annotate(err, "wal: open")
	}
	return &Log{file: f, path: path}, nil
}

// Append encodes record and writes its length-prefixed frame. It does not
// sync; callers that need durability must call Sync afterward.
func (l *Log) Append(record Record) error {
	payload := Encode(record)
	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(payload)))
	if _, err := l.file.Write(lenBuf[:]); err != nil {
		return jujuerrors.Annotate(err, "wal: write length prefix")
	}
	if _, err := l.file.Write(payload); err != nil {
		return jujuerrors.Annotate(err, "wal: write payload")
	}
	return nil
}

// Sync forces previously appended frames to stable storage.
func (l *Log) Sync() error {
	if err := l.file.Sync(); err != nil {
		return jujuerrors.Annotate(err, "wal: fsync")
	}
	return nil
}

// Close closes the underlying file without truncating or syncing.
func (l *Log) Close() error {
	return l.file.Close()
}

// Replay reads every frame from the start of the log and invokes visit
// for each successfully decoded record, in append order (redo order).
//
// Three outcomes distinguish a genuinely corrupt log from the two shapes
// a crash mid-append can leave behind (spec §4.4 "WAL corruption
// classification"):
//   - clean EOF exactly on a frame boundary: the normal end of a
//     complete log, not an error.
//   - a truncated trailing length prefix or payload (the process died
//     between the length write and the payload write, or mid-payload):
//     treated as the end of useful history; Replay stops and returns nil,
//     discarding only that last partial frame.
//   - a complete frame whose payload fails to decode (bad kind byte, or
//     a field that runs past the frame's own declared length): this can
//     only be real corruption, since appends only ever grow the tail, so
//     Replay returns an Error wrapping ErrCorruptRecord.
func (l *Log) Replay(visit func(Record) error) error {
	if _, err := l.file.Seek(0, io.SeekStart); err != nil {
		return jujuerrors.Annotate(err, "wal: seek to start")
	}
	r := &frameReader{f: l.file}
	for {
		payload, err := r.next()
		if err == io.EOF {
			return nil
		}
		if err == errTruncatedFrame {
			logrus.WithField("path", l.path).Warn("wal: discarding truncated trailing frame")
			return nil
		}
		if err != nil {
			return &Error{Op: "wal: read frame", Err: ErrCorruptRecord}
		}
		rec, err := Decode(payload)
		if err != nil {
			return &Error{Op: "wal: decode record: " + err.Error(), Err: ErrCorruptRecord}
		}
		if err := visit(rec); err != nil {
			return jujuerrors.Trace(err)
		}
	}
}

var errTruncatedFrame = errors.New("wal: truncated trailing frame")

type frameReader struct {
	f *os.File
}

// next reads one length-prefixed frame. It returns io.EOF only when zero
// bytes were read at a frame boundary, and errTruncatedFrame when a
// partial length prefix or partial payload is found at the tail.
func (r *frameReader) next() ([]byte, error) {
	var lenBuf [4]byte
	n, err := io.ReadFull(r.f, lenBuf[:])
	if err == io.EOF && n == 0 {
		return nil, io.EOF
	}
	if err != nil {
		return nil, errTruncatedFrame
	}
	length := binary.LittleEndian.Uint32(lenBuf[:])
	payload := make([]byte, length)
	if _, err := io.ReadFull(r.f, payload); err != nil {
		return nil, errTruncatedFrame
	}
	return payload, nil
}
