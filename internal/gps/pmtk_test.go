package gps

import "testing"

func TestCommand_KnownSentences(t *testing.T) {
	if got := OutputRMCGGA(); got != "$PMTK314,0,1,0,1,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0*28\r\n" {
		t.Fatalf("got %q", got)
	}
	want := map[int]string{
		1:  "$PMTK220,1000*1F\r\n",
		5:  "$PMTK220,200*2C\r\n",
		10: "$PMTK220,100*2F\r\n",
	}
	for hz, w := range want {
		got, err := UpdateRate(hz)
		if err != nil {
			t.Fatalf("%d Hz: %v", hz, err)
		}
		if got != w {
			t.Fatalf("%d Hz: got %q want %q", hz, got, w)
		}
	}
}

func TestUpdateRate_Rejects(t *testing.T) {
	if _, err := UpdateRate(2); err == nil {
		t.Fatalf("expected error")
	}
	if _, err := InitCommands(0); err == nil {
		t.Fatalf("expected error")
	}
}

func TestInitCommands_Order(t *testing.T) {
	cmds, err := InitCommands(1)
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if len(cmds) != 2 || cmds[0] != OutputRMCGGA() {
		t.Fatalf("cmds=%q", cmds)
	}
}
