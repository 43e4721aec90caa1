// Package sshagent retains the ssh-agent dialing groundwork from the
// teacher proxy's identity resolution: connecting to SSH_AUTH_SOCK and
// listing the signers it offers. Session.Connect in internal/sshclient
// still rejects AuthAgent with ErrUnsupported — forwarding a caller's
// exec requests onto an external agent process crosses the same trust
// boundary as agent forwarding, which the specification explicitly
// excludes as a non-goal — but the dialing logic is kept here, adapted
// rather than deleted, for a future Signers-returning auth method.
package sshagent

import (
	"fmt"
	"net"
	"os"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"
)

// Available reports whether SSH_AUTH_SOCK names a reachable agent
// socket.
func Available() bool {
	sock, ok := os.LookupEnv("SSH_AUTH_SOCK")
	if !ok {
		return false
	}
	conn, err := net.Dial("unix", sock)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

// Signers dials SSH_AUTH_SOCK and returns every signer the running
// agent offers, deduplicated by public key fingerprint the same way
// the teacher's identity-resolution loop does.
func Signers() ([]ssh.Signer, error) {
	sock, ok := os.LookupEnv("SSH_AUTH_SOCK")
	if !ok {
		return nil, fmt.Errorf("sshagent: SSH_AUTH_SOCK not set")
	}
	conn, err := net.Dial("unix", sock)
	if err != nil {
		return nil, fmt.Errorf("sshagent: dial agent: %w", err)
	}
	client := agent.NewClient(conn)

	signers, err := client.Signers()
	if err != nil {
		return nil, fmt.Errorf("sshagent: list signers: %w", err)
	}

	seen := make(map[string]struct{}, len(signers))
	out := make([]ssh.Signer, 0, len(signers))
	for _, signer := range signers {
		fp := string(signer.PublicKey().Marshal())
		if _, dup := seen[fp]; dup {
			continue
		}
		seen[fp] = struct{}{}
		out = append(out, signer)
	}
	return out, nil
}
