// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package fluentshipper

import (
	"encoding/json"
	"net"
	"strings"
	"testing"
	"time"
)

type sample struct {
	Msg string `msgpack:"msg" json:"msg"`
}

func acceptOne(t *testing.T, ln net.Listener) net.Conn {
	t.Helper()
	conn, err := ln.Accept()
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	return conn
}

func readAvailable(t *testing.T, conn net.Conn, n int) []byte {
	t.Helper()
	buf := make([]byte, n)
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	read := 0
	for read < n {
		m, err := conn.Read(buf[read:])
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		read += m
	}
	return buf
}

// S2: a JSONLogger.LogWithTimestamp call produces the exact text frame.
func TestJSONLoggerExactFrame(t *testing.T) {
	ln := listen(t)
	defer ln.Close()

	done := make(chan []byte, 1)
	go func() {
		conn := acceptOne(t, ln)
		defer conn.Close()
		want := `["app.log",1500564758,{"msg":"hello"}]`
		done <- readAvailable(t, conn, len(want))
	}()

	logger, err := NewJSONLogger(TCPAddr(ln.Addr().String()), nil)
	if err != nil {
		t.Fatalf("NewJSONLogger: %v", err)
	}
	defer logger.Close()

	if err := logger.LogWithTimestamp("app.log", 1500564758, sample{Msg: "hello"}); err != nil {
		t.Fatalf("LogWithTimestamp: %v", err)
	}

	got := <-done
	want := `["app.log",1500564758,{"msg":"hello"}]`
	if string(got) != want {
		t.Fatalf("got %q, want %q", got, want)
	}

	// Sanity: the embedded record really is valid JSON on its own.
	var decoded map[string]string
	recordStart := strings.Index(string(got), "{")
	if err := json.Unmarshal(got[recordStart:len(got)-1], &decoded); err != nil {
		t.Fatalf("embedded record is not valid JSON: %v", err)
	}
}

// S1: a MessagePackLogger.LogWithTimestamp call produces a frame that opens
// with the fixarray-3 header, the fixstr tag, and the int64 time marker.
func TestMessagePackLoggerFrameHeader(t *testing.T) {
	ln := listen(t)
	defer ln.Close()

	done := make(chan []byte, 1)
	go func() {
		conn := acceptOne(t, ln)
		defer conn.Close()
		buf := make([]byte, 256)
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		n, err := conn.Read(buf)
		if err != nil {
			t.Errorf("read: %v", err)
			done <- nil
			return
		}
		done <- buf[:n]
	}()

	logger, err := NewMessagePackLogger(TCPAddr(ln.Addr().String()), nil)
	if err != nil {
		t.Fatalf("NewMessagePackLogger: %v", err)
	}
	defer logger.Close()

	if err := logger.LogWithTimestamp("app", 1500564758, map[string]int{"n": 1}); err != nil {
		t.Fatalf("LogWithTimestamp: %v", err)
	}

	got := <-done
	if got[0] != 0x93 {
		t.Fatalf("frame header = %#x, want 0x93", got[0])
	}
	if got[1] != 0xA3 { // fixstr header for a 3-byte tag
		t.Fatalf("tag header = %#x, want 0xA3", got[1])
	}
	if string(got[2:5]) != "app" {
		t.Fatalf("tag bytes = %q, want %q", got[2:5], "app")
	}
	if got[5] != 0xD3 {
		t.Fatalf("time header = %#x, want 0xD3", got[5])
	}
}

// Log (no explicit timestamp) uses the logger's clock.
func TestJSONLoggerLogUsesClock(t *testing.T) {
	ln := listen(t)
	defer ln.Close()

	fixed := time.Unix(1700000000, 0)
	done := make(chan []byte, 1)
	want := `["t",1700000000,{"msg":"x"}]`
	go func() {
		conn := acceptOne(t, ln)
		defer conn.Close()
		done <- readAvailable(t, conn, len(want))
	}()

	logger, err := NewJSONLogger(TCPAddr(ln.Addr().String()), nil)
	if err != nil {
		t.Fatalf("NewJSONLogger: %v", err)
	}
	defer logger.Close()
	logger.clock = func() time.Time { return fixed }

	if err := logger.Log("t", sample{Msg: "x"}); err != nil {
		t.Fatalf("Log: %v", err)
	}
	if got := <-done; string(got) != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

// NewLogger selects the JSON façade for JSONFraming and the MessagePack
// façade for MessagePackFraming, without the caller picking a constructor.
func TestNewLoggerSelectsFramingFacade(t *testing.T) {
	ln := listen(t)
	defer ln.Close()
	go func() {
		for i := 0; i < 2; i++ {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			conn.Close()
		}
	}()

	jsonLogger, err := NewLogger(JSONFraming, TCPAddr(ln.Addr().String()))
	if err != nil {
		t.Fatalf("NewLogger(JSONFraming): %v", err)
	}
	defer jsonLogger.Close()
	if _, ok := jsonLogger.(*JSONLogger); !ok {
		t.Fatalf("NewLogger(JSONFraming) returned %T, want *JSONLogger", jsonLogger)
	}

	msgpackLogger, err := NewLogger(MessagePackFraming, TCPAddr(ln.Addr().String()))
	if err != nil {
		t.Fatalf("NewLogger(MessagePackFraming): %v", err)
	}
	defer msgpackLogger.Close()
	if _, ok := msgpackLogger.(*MessagePackLogger); !ok {
		t.Fatalf("NewLogger(MessagePackFraming) returned %T, want *MessagePackLogger", msgpackLogger)
	}
}
