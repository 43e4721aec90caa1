// Command piercorelib builds the C-ABI shared library surface of the
// specification (compile with -buildmode=c-shared). Every //export
// function marshals C strings at the edge and delegates to
// internal/bridge, internal/search, and internal/graph, which remain
// ordinary, independently testable Go.
package main

/*
#include <stdlib.h>
*/
import "C"

import (
	"encoding/json"
	"errors"
	"unsafe"

	"github.com/pier-term/piercore/internal/bridge"
	"github.com/pier-term/piercore/internal/config"
	"github.com/pier-term/piercore/internal/graph"
	"github.com/pier-term/piercore/internal/logx"
	"github.com/pier-term/piercore/internal/search"
	"github.com/pier-term/piercore/internal/sshclient"
)

var registry *bridge.Registry

var errSessionNotFound = errors.New("piercorelib: unknown ssh session handle")

//export init_piercore
func init_piercore() C.int {
	cfg, err := config.Load()
	if err != nil {
		logx.WithError(err).Warn("piercorelib: config load failed, using defaults")
		cfg = config.Default()
	}
	r, err := bridge.New(cfg.KnownHostsPath)
	if err != nil {
		logx.WithError(err).Error("piercorelib: registry init failed")
		return -1
	}
	registry = r
	return 0
}

//export string_free
func string_free(s *C.char) {
	C.free(unsafe.Pointer(s))
}

//export terminal_create
func terminal_create(cols, rows C.int, shell *C.char) C.ulonglong {
	handle, err := registry.CreateTerminal(int(cols), int(rows), C.GoString(shell))
	if err != nil {
		logx.WithError(err).Warn("terminal_create failed")
		return 0
	}
	return C.ulonglong(handle)
}

//export terminal_destroy
func terminal_destroy(handle C.ulonglong) C.int {
	if err := registry.DestroyTerminal(uint64(handle)); err != nil {
		return -1
	}
	return 0
}

//export terminal_write
func terminal_write(handle C.ulonglong, data *C.char, length C.int) C.int {
	sess, ok := registry.Terminal(uint64(handle))
	if !ok {
		return -1
	}
	buf := C.GoBytes(unsafe.Pointer(data), length)
	n, err := sess.Write(buf)
	if err != nil {
		return -1
	}
	return C.int(n)
}

//export terminal_read
func terminal_read(handle C.ulonglong, buf *C.char, length C.int) C.int {
	sess, ok := registry.Terminal(uint64(handle))
	if !ok {
		return -1
	}
	data, err := sess.Read()
	if err != nil {
		return -1
	}
	n := len(data)
	if n > int(length) {
		n = int(length)
	}
	if n > 0 {
		dst := (*[1 << 30]byte)(unsafe.Pointer(buf))[:n:n]
		copy(dst, data)
	}
	return C.int(n)
}

//export terminal_resize
func terminal_resize(handle C.ulonglong, cols, rows C.int) C.int {
	sess, ok := registry.Terminal(uint64(handle))
	if !ok {
		return -1
	}
	if err := sess.Resize(int(cols), int(rows)); err != nil {
		return -1
	}
	return 0
}

//export terminal_fd
func terminal_fd(handle C.ulonglong) C.longlong {
	sess, ok := registry.Terminal(uint64(handle))
	if !ok {
		return -1
	}
	return C.longlong(sess.Fd())
}

//export terminal_create_with_args
func terminal_create_with_args(cols, rows C.int, program *C.char, argv **C.char, argc C.int) C.ulonglong {
	n := int(argc)
	args := make([]string, n)
	if n > 0 {
		cArgs := (*[1 << 28]*C.char)(unsafe.Pointer(argv))[:n:n]
		for i, a := range cArgs {
			args[i] = C.GoString(a)
		}
	}
	handle, err := registry.CreateTerminalWithArgs(int(cols), int(rows), C.GoString(program), args...)
	if err != nil {
		logx.WithError(err).Warn("terminal_create_with_args failed")
		return 0
	}
	return C.ulonglong(handle)
}

//export search_files
func search_files(root, pattern *C.char, maxResults C.int) *C.char {
	entries, err := search.Files(C.GoString(root), C.GoString(pattern), int(maxResults))
	if err != nil {
		return C.CString(bridge.EncodeError(err))
	}
	out, err := bridge.EncodeSearchResults(entries)
	if err != nil {
		return C.CString(bridge.EncodeError(err))
	}
	return C.CString(out)
}

//export list_directory
func list_directory(path *C.char) *C.char {
	entries, err := search.ListDirectory(C.GoString(path))
	if err != nil {
		return C.CString(bridge.EncodeError(err))
	}
	out, err := bridge.EncodeOK(entries)
	if err != nil {
		return C.CString(bridge.EncodeError(err))
	}
	return C.CString(out)
}

//export ssh_connect
func ssh_connect(host *C.char, port C.int, username *C.char, authType C.int, credential *C.char) C.ulonglong {
	var auth sshclient.Auth
	switch int(authType) {
	case 0:
		auth = sshclient.PasswordAuth(C.GoString(credential))
	case 1:
		auth = sshclient.KeyFileAuth(C.GoString(credential), "")
	default:
		logx.WithField("auth_type", int(authType)).Warn("ssh_connect: unknown auth type")
		return 0
	}
	cfg := sshclient.Config{
		Host:     C.GoString(host),
		Port:     uint16(port),
		Username: C.GoString(username),
		Auth:     auth,
	}
	handle := registry.CreateSSHSession(cfg)
	sess, _ := registry.SSHSession(handle)
	if err := sess.Connect(); err != nil {
		registry.DestroySSHSession(handle)
		return 0
	}
	return C.ulonglong(handle)
}

//export ssh_disconnect
func ssh_disconnect(handle C.ulonglong) C.int {
	if err := registry.DestroySSHSession(uint64(handle)); err != nil {
		return -1
	}
	return 0
}

//export ssh_is_connected
func ssh_is_connected(handle C.ulonglong) C.int {
	sess, ok := registry.SSHSession(uint64(handle))
	if !ok {
		return -1
	}
	if !sess.IsConnected() {
		return 0
	}
	return 1
}

//export ssh_exec
func ssh_exec(handle C.ulonglong, command *C.char) *C.char {
	sess, ok := registry.SSHSession(uint64(handle))
	if !ok {
		return C.CString(bridge.EncodeError(errSessionNotFound))
	}
	res, err := sess.ExecCommand(C.GoString(command))
	if err != nil {
		return C.CString(bridge.EncodeError(err))
	}
	out, _ := bridge.EncodeOK(res)
	return C.CString(out)
}

//export ssh_detect_services
func ssh_detect_services(handle C.ulonglong) *C.char {
	sess, ok := registry.SSHSession(uint64(handle))
	if !ok {
		return C.CString(bridge.EncodeError(errSessionNotFound))
	}
	out, _ := bridge.EncodeOK(sess.DetectServices())
	return C.CString(out)
}

//export ssh_forward_port
func ssh_forward_port(handle C.ulonglong, localPort C.int, remoteHost *C.char, remotePort C.int) C.int {
	sess, ok := registry.SSHSession(uint64(handle))
	if !ok {
		return -1
	}
	if err := sess.StartPortForward(uint16(localPort), C.GoString(remoteHost), uint16(remotePort)); err != nil {
		return -1
	}
	return 0
}

//export ssh_stop_forward
func ssh_stop_forward(handle C.ulonglong, localPort C.int) C.int {
	sess, ok := registry.SSHSession(uint64(handle))
	if !ok {
		return -1
	}
	if err := sess.StopPortForward(uint16(localPort)); err != nil {
		return -1
	}
	return 0
}

//export ssh_list_forwards
func ssh_list_forwards(handle C.ulonglong) *C.char {
	sess, ok := registry.SSHSession(uint64(handle))
	if !ok {
		return C.CString(bridge.EncodeError(errSessionNotFound))
	}
	forwards := sess.ActiveForwards()
	ports := make([]uint16, len(forwards))
	for i, f := range forwards {
		ports[i] = f.LocalPort
	}
	out, _ := bridge.EncodeOK(ports)
	return C.CString(out)
}

//export compute_graph_layout
func compute_graph_layout(commitsJSON *C.char, mainChainJSON *C.char, paramsJSON *C.char) *C.char {
	var commits []graph.Commit
	if err := json.Unmarshal([]byte(C.GoString(commitsJSON)), &commits); err != nil {
		return C.CString(bridge.EncodeError(err))
	}
	var mainChainList []string
	if err := json.Unmarshal([]byte(C.GoString(mainChainJSON)), &mainChainList); err != nil {
		return C.CString(bridge.EncodeError(err))
	}
	mainChain := make(map[string]struct{}, len(mainChainList))
	for _, hash := range mainChainList {
		mainChain[hash] = struct{}{}
	}

	params := graph.Params{LaneWidth: 20, RowHeight: 24, ShowLongEdges: true}
	if err := json.Unmarshal([]byte(C.GoString(paramsJSON)), &params); err != nil {
		return C.CString(bridge.EncodeError(err))
	}
	rows := graph.Layout(commits, mainChain, params)

	out, err := bridge.EncodeGraphRows(rows)
	if err != nil {
		return C.CString(bridge.EncodeError(err))
	}
	return C.CString(out)
}

func main() {}
