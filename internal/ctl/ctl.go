package ctl

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// ErrAlreadyRunning means another daemon instance answered on the
// control address.
var ErrAlreadyRunning = errors.New("daemon already running")

// DefaultAddr is the loopback control endpoint. The fixed port is what
// makes the bind a single-instance lock.
const DefaultAddr = "127.0.0.1:45678"

const (
	// connTimeout bounds a whole control exchange on the server side.
	connTimeout = 5 * time.Second

	// maxRequest caps a request line; every verb fits with room to spare.
	maxRequest = 64
)

// Handler reacts to control verbs. Each method returns the reply line
// sent back to the client, conventionally "ok …" or "err …".
type Handler interface {
	Toggle() string
	Stop() string
	Status() string
}

// Server owns the control listener.
type Server struct {
	ln      net.Listener
	handler Handler

	wg        sync.WaitGroup
	closeOnce sync.Once
}

// Listen binds the control address and starts serving. When the bind
// fails and a running daemon answers a ping on the same address, the
// error is ErrAlreadyRunning; other bind failures come back verbatim.
func Listen(addr string, h Handler) (*Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		if _, pingErr := Send(addr, "ping", time.Second); pingErr == nil {
			return nil, fmt.Errorf("%w on %s", ErrAlreadyRunning, addr)
		}
		return nil, fmt.Errorf("listen %s: %w", addr, err)
	}

	s := &Server{ln: ln, handler: h}
	s.wg.Add(1)
	go s.serve()

	log.Info("Control endpoint listening", "addr", ln.Addr())
	return s, nil
}

// Addr returns the bound address.
func (s *Server) Addr() net.Addr {
	return s.ln.Addr()
}

// Close stops the listener. In-flight requests finish on their own
// deadlines.
func (s *Server) Close() error {
	var err error
	s.closeOnce.Do(func() {
		err = s.ln.Close()
		s.wg.Wait()
	})
	return err
}

func (s *Server) serve() {
	defer s.wg.Done()
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			log.Debug("Accept failed", "error", err)
			continue
		}
		go s.handle(conn)
	}
}

// handle runs one request/reply exchange and closes the connection.
func (s *Server) handle(conn net.Conn) {
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(connTimeout))

	line, err := bufio.NewReader(io.LimitReader(conn, maxRequest)).ReadString('\n')
	if err != nil && line == "" {
		log.Debug("Control read failed", "from", conn.RemoteAddr(), "error", err)
		return
	}
	verb := strings.TrimSpace(line)

	var reply string
	switch verb {
	case "toggle":
		reply = s.handler.Toggle()
	case "stop":
		reply = s.handler.Stop()
	case "status":
		reply = s.handler.Status()
	case "ping":
		reply = "ok pong"
	default:
		reply = "err unknown command"
	}

	log.Debug("Control request", "verb", verb, "reply", reply, "from", conn.RemoteAddr())
	fmt.Fprintln(conn, reply)
}

// Send dials a running daemon, submits one verb and returns the reply
// line without its trailing newline.
func Send(addr, verb string, timeout time.Duration) (string, error) {
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return "", fmt.Errorf("dial %s: %w", addr, err)
	}
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(timeout))

	if _, err := fmt.Fprintln(conn, verb); err != nil {
		return "", fmt.Errorf("send %q: %w", verb, err)
	}

	reply, err := bufio.NewReader(conn).ReadString('\n')
	if err != nil && reply == "" {
		return "", fmt.Errorf("read reply: %w", err)
	}
	return strings.TrimSpace(reply), nil
}
