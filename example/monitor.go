package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/aethertone/midi/sdk/contracts"
	"github.com/aethertone/midi/sdk/midi"
	gomidi "gitlab.com/gomidi/midi/v2"
)

// Opens an input port on the JACK server and prints every message it
// receives. Build with -tags jack and connect a source to "monitor:in".
func main() {
	in, err := midi.NewMIDIIn(
		contracts.WithClientName("monitor"),
		contracts.WithQueueSizeLimit(256),
	)
	if err != nil {
		fmt.Fprintln(os.Stderr, "could not create MIDI input:", err)
		os.Exit(1)
	}
	defer in.Close()

	fmt.Printf("peer ports: %d\n", in.PortCount())
	for i := 0; i < in.PortCount(); i++ {
		fmt.Printf("  %d: %s\n", i, in.PortName(i))
	}

	if err := in.OpenVirtualPort("in"); err != nil {
		fmt.Fprintln(os.Stderr, "could not open port:", err)
		os.Exit(1)
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	fmt.Println("listening on monitor:in, Ctrl-C to quit")
	for {
		select {
		case msg := <-in.Messages():
			fmt.Printf("+%0.6fs  %s\n", msg.Timestamp, gomidi.Message(msg.Bytes).String())
		case <-sig:
			return
		}
	}
}
