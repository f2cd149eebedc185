package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/Gurux/gxcommon-go"
	"github.com/Gurux/gxpacket-go"
	"golang.org/x/text/language"
)

var (
	port     = flag.String("S", "", "Port name")
	baudRate = flag.Int("b", 9600, "Baud rate")
	dataBits = flag.Int("d", 8, "DataBits (5, 6, 7, 8)")
	parity   = flag.String("p", "None", "Parity (None, Odd, Even, Mark, Space)")
	backend  = flag.String("backend", "native", "Serial backend (native, bugst, tarm)")
	gap      = flag.Int("gap", 0, "Frame gap in milliseconds. 0 derives the gap from the baud rate.")
	length   = flag.Int("len", 0, "Fixed frame length. Used with -timeout.")
	timeout  = flag.Int("timeout", 100, "Fixed frame timeout in milliseconds.")
	message  = flag.String("m", "", "Send message")
	hexData  = flag.Bool("x", false, "Message is hex.")
	t        = flag.String("t", "", "Trace level.")
	w        = flag.Int("w", 0, "Listen time in milliseconds. 0 listens until interrupted.")
	conf     = flag.String("c", "", "YAML file where the port and baud rate are saved.")
	list     = flag.Bool("l", false, "List serial ports.")
	lang     = flag.String("lang", "", "Used language.")
)

type printer struct{}

func (*printer) OnFrame(f gxpacket.Frame) {
	fmt.Printf("Frame (%d): %s\n", f.Len(), f.Hex())
}

func main() {
	flag.Parse()
	if *list {
		ret, err := gxpacket.GetPortNames()
		if err != nil {
			fmt.Fprintln(os.Stderr, "Failed to get available serial ports: ", err)
			return
		}
		fmt.Println(strings.Join(ret, "\n"))
		return
	}

	Parity, err := gxcommon.ParityParse(*parity)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error parsing parity:", err)
		return
	}
	settings := gxpacket.PortSettings{DataBits: *dataBits, Parity: Parity, StopBits: gxcommon.StopBitsOne}
	var opener gxpacket.Opener
	switch *backend {
	case "native":
		opener = gxpacket.NativeOpener{Settings: settings}
	case "bugst":
		opener = gxpacket.BugstOpener{Settings: settings}
	case "tarm":
		opener = gxpacket.TarmOpener{Settings: settings}
	default:
		fmt.Fprintln(os.Stderr, "unknown backend:", *backend)
		return
	}

	opts := []gxpacket.Option{
		gxpacket.WithErrorPresenter(gxpacket.ErrorPresenterFunc(func(msg string) {
			fmt.Fprintln(os.Stderr, msg)
		})),
	}
	if *conf != "" {
		opts = append(opts, gxpacket.WithConfigStore(gxpacket.NewFileStore(*conf)))
	}
	session := gxpacket.NewGXDeviceSession(opener, opts...)
	defer session.Destroy()
	if *lang != "" {
		tag, err := language.Parse(*lang)
		if err != nil {
			fmt.Fprintln(os.Stderr, "error parsing language:", err)
			return
		}
		session.Localize(tag)
	}
	if *port != "" {
		session.Configure(*port, gxcommon.BaudRate(*baudRate))
	}

	var policy gxpacket.FramingPolicy = gxpacket.AutoGap{Gap: time.Duration(*gap) * time.Millisecond}
	if *length != 0 {
		policy = gxpacket.FixedLengthOrTimeout{Length: *length, Timeout: time.Duration(*timeout) * time.Millisecond}
	}
	if err := session.SetFramingPolicy(policy); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return
	}

	if *t != "" {
		tl, err := gxcommon.TraceLevelParse(*t)
		if err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			return
		}
		if err := session.SetTrace(tl); err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			return
		}
	}
	session.SetOnTrace(func(m gxcommon.IGXMedia, e gxcommon.TraceEventArgs) {
		fmt.Printf("Trace: %s\n", e.String())
	})
	session.SetOnMediaStateChange(func(m gxcommon.IGXMedia, e gxcommon.MediaStateEventArgs) {
		fmt.Printf("Media state change : %s\n", e.State().String())
	})
	session.SetErrorListener(gxpacket.ErrorListenerFunc(func(err error) {
		fmt.Fprintf(os.Stderr, "error (%s): %v\n", gxpacket.KindOf(err), err)
	}))
	if err := session.AddFrameListener(&printer{}); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return
	}

	if err := session.Start(); err != nil {
		ret, e := gxpacket.GetPortNames()
		if e == nil {
			fmt.Fprintln(os.Stderr, "Available serial ports: "+strings.Join(ret, ","))
		}
		return
	}
	fmt.Printf("Port: %s %d bps %s\n", session.Device(), int(session.BaudRate()), session.FramingPolicy())
	if *conf != "" {
		if err := session.SaveIdentity(); err != nil {
			fmt.Fprintln(os.Stderr, "save failed:", err)
		}
	}

	if *message != "" {
		data := []byte(*message)
		if *hexData {
			data, err = gxpacket.ParseHex(strings.ReplaceAll(*message, " ", ""))
			if err != nil {
				fmt.Fprintln(os.Stderr, "error parsing message:", err)
				return
			}
		}
		err = <-session.SendAsync(data, gxpacket.SendListenerFuncs{
			Progress: func(sent, total int) {
				fmt.Printf("Sent %d/%d\n", sent, total)
			},
		})
		if err != nil {
			fmt.Fprintln(os.Stderr, "send failed:", err)
		}
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	if *w > 0 {
		select {
		case <-stop:
		case <-time.After(time.Duration(*w) * time.Millisecond):
		}
	} else {
		<-stop
	}
	fmt.Printf("Exit\n")
}
