package transport

import (
	"bufio"
	"net"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

// echoServer accepts one connection and echoes every line it receives
// prefixed with "echo: ".
func echoServer(t *testing.T, ln net.Listener) {
	conn, err := ln.Accept()
	if err != nil {
		return
	}
	defer conn.Close()
	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		conn.Write([]byte("echo: " + scanner.Text() + "\n"))
	}
}

func TestSocketConnectsAndExchangesLines(t *testing.T) {
	Convey("Given a TCP server listening locally", t, func() {
		ln, err := net.Listen("tcp", "127.0.0.1:0")
		So(err, ShouldBeNil)
		defer ln.Close()
		go echoServer(t, ln)

		Convey("A Socket connects and publishes the Connected state", func() {
			sock := Dial(ln.Addr().String())
			defer sock.Close()

			select {
			case st := <-sock.StateChanges():
				So(st, ShouldEqual, Connected)
			case <-time.After(2 * time.Second):
				t.Fatal("timed out waiting for Connected state")
			}

			Convey("Sending a line yields the echoed reply", func() {
				So(sock.Send("hello"), ShouldBeNil)

				select {
				case line := <-sock.Lines():
					So(line, ShouldEqual, "echo: hello")
				case <-time.After(2 * time.Second):
					t.Fatal("timed out waiting for echoed line")
				}
			})
		})
	})
}

func TestSocketReconnectsAfterDialFailure(t *testing.T) {
	Convey("Given an address with nothing listening yet", t, func() {
		ln, err := net.Listen("tcp", "127.0.0.1:0")
		So(err, ShouldBeNil)
		addr := ln.Addr().String()
		ln.Close() // free the port, nothing listens initially

		sock := Dial(addr)
		defer sock.Close()

		select {
		case st := <-sock.StateChanges():
			So(st, ShouldEqual, Disconnected)
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for Disconnected state")
		}
	})
}
