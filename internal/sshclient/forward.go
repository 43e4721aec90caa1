package sshclient

import (
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"

	"golang.org/x/crypto/ssh"

	"github.com/pier-term/piercore/internal/logx"
	"github.com/pier-term/piercore/internal/pierr"
)

const forwardCopyBufSize = 8 * 1024

// forwardTask is one active local-port forward: a listener accepting
// loopback connections and relaying each over a direct-tcpip channel to
// remoteHost:remotePort. cancel is a latched boolean signal raced
// against both the accept loop and every connection's copy loop, so a
// single Stop tears down every in-flight relay for this forward.
type forwardTask struct {
	localPort  uint16
	remoteHost string
	remotePort uint16

	listener net.Listener
	cancel   chan struct{}
	canceled int32 // atomic latch, guards double-close of cancel
	wg       sync.WaitGroup
}

func (t *forwardTask) stop() {
	if atomic.CompareAndSwapInt32(&t.canceled, 0, 1) {
		close(t.cancel)
	}
	if t.listener != nil {
		t.listener.Close()
	}
	t.wg.Wait()
}

// ForwardInfo describes one active forward for ActiveForwards.
type ForwardInfo struct {
	LocalPort  uint16 `json:"local_port"`
	RemoteHost string `json:"remote_host"`
	RemotePort uint16 `json:"remote_port"`
}

// StartPortForward binds 127.0.0.1:localPort and relays every accepted
// connection to remoteHost:remotePort over a direct-tcpip channel on
// the shared transport. A duplicate localPort is rejected with
// ErrAlreadyForwarded; a bind failure with ErrBindFailed.
func (s *Session) StartPortForward(localPort uint16, remoteHost string, remotePort uint16) error {
	s.forwardsMu.Lock()
	if _, exists := s.forwards[localPort]; exists {
		s.forwardsMu.Unlock()
		return fmt.Errorf("%w: local port %d already forwarded", pierr.ErrAlreadyForwarded, localPort)
	}
	s.forwardsMu.Unlock()

	client := s.client()
	if client == nil {
		return fmt.Errorf("%w: not connected", pierr.ErrIoError)
	}

	addr := fmt.Sprintf("127.0.0.1:%d", localPort)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("%w: %v", pierr.ErrBindFailed, err)
	}

	task := &forwardTask{
		localPort:  localPort,
		remoteHost: remoteHost,
		remotePort: remotePort,
		listener:   listener,
		cancel:     make(chan struct{}),
	}

	s.forwardsMu.Lock()
	s.forwards[localPort] = task
	s.forwardsMu.Unlock()

	go s.acceptLoop(task, client)
	return nil
}

func (s *Session) acceptLoop(task *forwardTask, client *ssh.Client) {
	type acceptResult struct {
		conn net.Conn
		err  error
	}
	for {
		acceptCh := make(chan acceptResult, 1)
		go func() {
			conn, err := task.listener.Accept()
			acceptCh <- acceptResult{conn, err}
		}()

		select {
		case <-task.cancel:
			return
		case res := <-acceptCh:
			if res.err != nil {
				return // listener closed, either by Stop or a real error
			}
			task.wg.Add(1)
			go s.relayConnection(task, client, res.conn)
		}
	}
}

func (s *Session) relayConnection(task *forwardTask, client *ssh.Client, local net.Conn) {
	defer task.wg.Done()
	defer local.Close()

	remoteAddr := fmt.Sprintf("%s:%d", task.remoteHost, task.remotePort)
	channel, reqs, err := client.OpenChannel("direct-tcpip", directTCPIPPayload(task.remoteHost, task.remotePort, local))
	if err != nil {
		logx.WithError(err).WithField("remote", remoteAddr).Warn("port forward: open channel failed")
		return
	}
	go ssh.DiscardRequests(reqs)
	defer channel.Close()

	// No session lock is held here: the client was captured once in
	// StartPortForward, so the copy loop below never holds s.mu.
	done := make(chan struct{}, 2)
	go copyWithCancel(done, channel, local, task.cancel)
	go copyWithCancel(done, local, channel, task.cancel)

	select {
	case <-done:
	case <-task.cancel:
	}
}

func copyWithCancel(done chan<- struct{}, dst io.Writer, src io.Reader, cancel <-chan struct{}) {
	buf := make([]byte, forwardCopyBufSize)
	for {
		select {
		case <-cancel:
			done <- struct{}{}
			return
		default:
		}
		n, err := src.Read(buf)
		if n > 0 {
			if _, werr := dst.Write(buf[:n]); werr != nil {
				done <- struct{}{}
				return
			}
		}
		if err != nil {
			done <- struct{}{}
			return
		}
	}
}

// directTCPIPPayload builds the direct-tcpip channel-open payload per
// RFC 4254 §7.2, sourcing the originator fields from local's address.
func directTCPIPPayload(host string, port uint16, local net.Conn) []byte {
	originHost, originPort := splitHostPort(local.RemoteAddr().String())
	return ssh.Marshal(struct {
		DestHost   string
		DestPort   uint32
		OriginHost string
		OriginPort uint32
	}{
		DestHost:   host,
		DestPort:   uint32(port),
		OriginHost: originHost,
		OriginPort: uint32(originPort),
	})
}

func splitHostPort(addr string) (string, uint16) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return "127.0.0.1", 0
	}
	var port int
	fmt.Sscanf(portStr, "%d", &port)
	return host, uint16(port)
}

// StopPortForward cancels and tears down the forward bound to
// localPort, if any. Returns ErrNotFound if no such forward is active.
func (s *Session) StopPortForward(localPort uint16) error {
	s.forwardsMu.Lock()
	task, ok := s.forwards[localPort]
	if ok {
		delete(s.forwards, localPort)
	}
	s.forwardsMu.Unlock()
	if !ok {
		return fmt.Errorf("%w: local port %d", pierr.ErrNotFound, localPort)
	}
	task.stop()
	return nil
}

// StopAllForwards tears down every active forward, used by Disconnect.
func (s *Session) StopAllForwards() {
	s.forwardsMu.Lock()
	tasks := make([]*forwardTask, 0, len(s.forwards))
	for port, task := range s.forwards {
		tasks = append(tasks, task)
		delete(s.forwards, port)
	}
	s.forwardsMu.Unlock()
	for _, task := range tasks {
		task.stop()
	}
}

// ActiveForwards lists every currently active forward.
func (s *Session) ActiveForwards() []ForwardInfo {
	s.forwardsMu.Lock()
	defer s.forwardsMu.Unlock()
	out := make([]ForwardInfo, 0, len(s.forwards))
	for _, task := range s.forwards {
		out = append(out, ForwardInfo{
			LocalPort:  task.localPort,
			RemoteHost: task.remoteHost,
			RemotePort: task.remotePort,
		})
	}
	return out
}
