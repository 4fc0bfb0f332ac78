package protocol

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestEscapeUnescapeRoundTrip(t *testing.T) {
	cases := [][]byte{
		[]byte("hello"),
		[]byte("a\\b\nc\rd\te"),
		[]byte(`\n literal backslash-n`),
		[]byte(""),
	}
	for _, c := range cases {
		got := Unescape(Escape(c))
		if string(got) != string(c) {
			t.Errorf("round trip %q -> %q, want %q", c, got, c)
		}
	}
}

func TestParsePut(t *testing.T) {
	req, err := Parse([]byte("PUT mykey hello\\nworld"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want := Request{Command: CommandPut, Key: []byte("mykey"), Value: []byte("hello\nworld")}
	if diff := cmp.Diff(want, req); diff != "" {
		t.Errorf("Parse mismatch (-want +got):\n%s", diff)
	}
}

func TestParsePut_MissingValueIsEmpty(t *testing.T) {
	req, err := Parse([]byte("PUT mykey"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if string(req.Value) != "" {
		t.Errorf("Value = %q, want empty", req.Value)
	}
}

func TestParseBatchPut(t *testing.T) {
	req, err := Parse([]byte("batchput k1||k2 v1||v2"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(req.Keys) != 2 || string(req.Keys[0]) != "k1" || string(req.Keys[1]) != "k2" {
		t.Errorf("Keys = %v", req.Keys)
	}
	if len(req.Values) != 2 || string(req.Values[0]) != "v1" || string(req.Values[1]) != "v2" {
		t.Errorf("Values = %v", req.Values)
	}
}

func TestParseBatchPut_CountMismatch(t *testing.T) {
	_, err := Parse([]byte("BATCHPUT k1||k2 v1"))
	if err == nil {
		t.Fatal("expected count-mismatch error")
	}
}

func TestParseReadRange(t *testing.T) {
	req, err := Parse([]byte("READRANGE a z"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if string(req.Key) != "a" || string(req.Value) != "z" {
		t.Errorf("got (%q, %q), want (a, z)", req.Key, req.Value)
	}
}

func TestParseDelete_WrongArity(t *testing.T) {
	if _, err := Parse([]byte("DELETE")); err == nil {
		t.Fatal("expected arity error")
	}
}

func TestParseReplicatePut(t *testing.T) {
	req, err := Parse([]byte("REPLICATE PUT k v"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if req.Command != CommandReplicatePut || string(req.Key) != "k" || string(req.Value) != "v" {
		t.Errorf("got %+v", req)
	}
}

func TestParseReplicate_UnknownSubcommand(t *testing.T) {
	if _, err := Parse([]byte("REPLICATE FROBNICATE k v")); err == nil {
		t.Fatal("expected unknown-subcommand error")
	}
}

func TestParse_UnknownCommand(t *testing.T) {
	if _, err := Parse([]byte("FROBNICATE k")); err == nil {
		t.Fatal("expected unknown-command error")
	}
}

func TestFormatRange(t *testing.T) {
	got := FormatRange([]string{"a", "b"}, [][]byte{[]byte("1"), []byte("2\n")})
	want := `a||1||b||2\n`
	if string(got) != want {
		t.Errorf("FormatRange = %q, want %q", got, want)
	}
}

func TestBuildReplicatePut(t *testing.T) {
	got := BuildReplicatePut([]byte("k"), []byte("v\n"))
	want := `REPLICATE PUT k v\n`
	if string(got) != want {
		t.Errorf("BuildReplicatePut = %q, want %q", got, want)
	}
}
