package api

import (
	"errors"
	"strings"
	"testing"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name string
		in   string
		t    T
		err  error
	}{
		{name: "join", in: `{"type":"join","public_ip":"1.2.3.4","public_port":5000}`, t: Join},
		{name: "chat", in: `{"type":"chat","message":"hi"}`, t: Chat},
		{name: "garbage", in: `hello`, err: ErrMalformed},
		{name: "not an object", in: `[1,2]`, err: ErrMalformed},
		{name: "no type", in: `{"message":"hi"}`, err: ErrMalformed},
		{name: "unknown", in: `{"type":"dance"}`, err: ErrUnknownType},
		{name: "outbound type", in: `{"type":"joined"}`, err: ErrUnknownType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in, err := Decode([]byte(tt.in))
			if !errors.Is(err, tt.err) {
				t.Fatalf("error = %v, want %v", err, tt.err)
			}
			if err == nil && in.T != tt.t {
				t.Errorf("type = %v, want %v", in.T, tt.t)
			}
		})
	}
}

func TestUnwrapJoin(t *testing.T) {
	in, err := Decode([]byte(`{"type":"join","username":"Alice","public_ip":"1.2.3.4","public_port":5000}`))
	if err != nil {
		t.Fatal(err)
	}
	rq, err := Unwrap[JoinRequest](in)
	if err != nil {
		t.Fatal(err)
	}
	if rq.Username != "Alice" || rq.PublicIp != "1.2.3.4" || rq.PublicPort != "5000" {
		t.Errorf("unexpected request %+v", rq)
	}

	in, _ = Decode([]byte(`{"type":"join","public_port":{"n":5}}`))
	if _, err = Unwrap[JoinRequest](in); !errors.Is(err, ErrMalformed) {
		t.Errorf("a wrong port type should be malformed, got %v", err)
	}
}

func TestJoinPortVerbatim(t *testing.T) {
	for _, port := range []string{`5000`, `5000.0`, `5e3`, `5000.5`, `-1`} {
		in, err := Decode([]byte(`{"type":"join","public_ip":"1.2.3.4","public_port":` + port + `}`))
		if err != nil {
			t.Fatal(err)
		}
		rq, err := Unwrap[JoinRequest](in)
		if err != nil {
			t.Fatalf("port %v: %v", port, err)
		}
		out, err := Encode(NewUserJoined(PeerInfo{PeerId: "p1", Username: "A", UdpIp: rq.PublicIp, UdpPort: rq.PublicPort}))
		if err != nil {
			t.Fatal(err)
		}
		want := `{"type":"user-joined","peerId":"p1","username":"A","udp_ip":"1.2.3.4","udp_port":` + port + `}`
		if string(out) != want {
			t.Errorf("got %s, want %s", out, want)
		}
	}
}

func TestChatVerbatim(t *testing.T) {
	for _, msg := range []string{`"hi"`, `{"a":[1,2,{"b":null}]}`, `42`, `true`} {
		in, err := Decode([]byte(`{"type":"chat","message":` + msg + `}`))
		if err != nil {
			t.Fatal(err)
		}
		rq, err := Unwrap[ChatRequest](in)
		if err != nil {
			t.Fatal(err)
		}
		out, err := Encode(NewChat("Bob", rq.Message))
		if err != nil {
			t.Fatal(err)
		}
		want := `{"type":"chat","username":"Bob","message":` + msg + `}`
		if string(out) != want {
			t.Errorf("got %s, want %s", out, want)
		}
	}
}

func TestEncode(t *testing.T) {
	tests := []struct {
		v    any
		want string
	}{
		{v: NewJoined("p1", 2), want: `{"type":"joined","peerId":"p1","userCount":2}`},
		{v: NewUserLeft("p1", "Alice"), want: `{"type":"user-left","peerId":"p1","username":"Alice"}`},
		{v: NewError(ErrUnknownType), want: `{"type":"error","message":"unknown message type"}`},
		{
			v:    NewUserJoined(PeerInfo{PeerId: "p2", Username: "Bob", UdpIp: "5.6.7.8", UdpPort: "6000"}),
			want: `{"type":"user-joined","peerId":"p2","username":"Bob","udp_ip":"5.6.7.8","udp_port":6000}`,
		},
		{
			v:    NewExistingUsers([]PeerInfo{{PeerId: "p1", Username: "Alice", UdpIp: "1.2.3.4", UdpPort: "5000"}}),
			want: `{"type":"existing-users","users":[{"peerId":"p1","username":"Alice","udp_ip":"1.2.3.4","udp_port":5000}]}`,
		},
		{v: NewChat("Unknown", nil), want: `{"type":"chat","username":"Unknown"}`},
	}
	for _, tt := range tests {
		out, err := Encode(tt.v)
		if err != nil {
			t.Fatal(err)
		}
		if string(out) != tt.want {
			t.Errorf("got %s, want %s", out, tt.want)
		}
	}
}

func TestErrorText(t *testing.T) {
	_, err := Decode([]byte(`{"type":"dance"}`))
	if !strings.Contains(NewError(err).Message, "dance") {
		t.Errorf("error text should name the type: %v", err)
	}
}
