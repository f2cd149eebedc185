// Package gxpacket exchanges byte streams with UART-style serial devices.
// Received bytes are grouped into frames by timing or length, and outgoing
// buffers are written in bounded chunks with progress reporting.
//
// Features
//
//   - Framing: AutoGap ends a frame after a quiet gap derived from the baud
//     rate, FixedLengthOrTimeout ends it at a byte count or a timeout.
//   - Chunked send with cumulative progress and a single result per send.
//   - Session lifecycle (Closed, Opening, Running) with one running session
//     per device path.
//   - Listeners: frame listeners, one error listener and per-send listeners.
//     All notifications are run by one Executor, in order and never at the
//     same time.
//   - Backends: the native termios/DCB handler, go.bug.st/serial and
//     github.com/tarm/serial.
//   - Device identity persisted with a ConfigStore (memory or YAML file).
//   - gxcommon IGXMedia compatibility: trace, state, error and receive events
//     and synchronous Receive.
//
// # Construction
//
// Use NewGXDeviceSession with an Opener. Options select the executor, the
// config store and the error presenter.
//
// Example
//
//	session := gxpacket.NewGXDeviceSession(gxpacket.NativeOpener{},
//	    gxpacket.WithConfigStore(gxpacket.NewFileStore("serial.yaml")))
//	defer session.Destroy()
//
//	session.Configure("/dev/ttyUSB0", 9600)
//	_ = session.SetFramingPolicy(gxpacket.FixedLengthOrTimeout{Length: 16, Timeout: 200 * time.Millisecond})
//	_ = session.AddFrameListener(listener) // OnFrame(gxpacket.Frame)
//	session.SetErrorListener(gxpacket.ErrorListenerFunc(func(err error) {
//	    // gxpacket.KindOf(err) tells what failed.
//	}))
//
//	if err := session.Start(); err != nil {
//	    // handle open error
//	}
//	err := <-session.SendAsync([]byte{0x01, 0x02, 0x03}, nil)
//
// # Frames
//
// A frame pending when the session is stopped or when the input fails is
// discarded. Read the data before stopping if it is needed.
//
// # Errors
//
// Errors are *Error values classified by ErrorKind. Open and configuration
// errors go to the error listener or, if there is none, to the ErrorPresenter.
// Read errors end reception but leave the session running. Send errors are
// reported only to the send that failed. Close errors are traced.
//
// # Notes
//
// The zero value of GXDeviceSession is not ready for use; always construct via
// NewGXDeviceSession. Long-running work in listeners delays the following
// notifications and should be offloaded to a separate goroutine.
package gxpacket
