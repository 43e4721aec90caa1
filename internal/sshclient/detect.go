package sshclient

import (
	"context"
	"strings"
	"sync"
	"time"
)

// Service describes one detected service on the remote host. Status is
// one of "Running", "Stopped", or "Installed" (present, but running
// status could not be determined before the overall deadline).
type Service struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Status  string `json:"status"`
	Port    uint16 `json:"port"`
}

const (
	statusRunning   = "Running"
	statusStopped   = "Stopped"
	statusInstalled = "Installed"
)

const detectOverall = 30 * time.Second

var knownServices = []struct {
	name   string
	binary string
	port   uint16
}{
	{"mysql", "mysql", 3306},
	{"redis", "redis-server", 6379},
	{"postgresql", "psql", 5432},
	{"docker", "docker", 0},
}

// DetectServices probes mysql, redis, postgresql, and docker in
// parallel, bounded by an overall 30-second deadline. A service whose
// binary is absent is omitted from the result entirely rather than
// reported with a negative status.
func (s *Session) DetectServices() []Service {
	ctx, cancel := context.WithTimeout(context.Background(), detectOverall)
	defer cancel()

	found := make([]*Service, len(knownServices))
	var wg sync.WaitGroup
	for i, svc := range knownServices {
		wg.Add(1)
		go func(i int, name, binary string, port uint16) {
			defer wg.Done()
			found[i] = s.probeService(ctx, name, binary, port)
		}(i, svc.name, svc.binary, svc.port)
	}
	wg.Wait()

	results := make([]Service, 0, len(found))
	for _, svc := range found {
		if svc != nil {
			results = append(results, *svc)
		}
	}
	return results
}

// probeService returns nil if the binary is not present on the remote
// host, per spec.md §8 invariant 12.
func (s *Session) probeService(ctx context.Context, name, binary string, port uint16) *Service {
	whichCh := make(chan ExecResult, 1)
	go func() { whichCh <- s.execNoTimeout("which " + binary) }()
	var which ExecResult
	select {
	case which = <-whichCh:
	case <-ctx.Done():
		return nil
	}
	if which.ExitCode != 0 || strings.TrimSpace(which.Stdout) == "" {
		return nil
	}

	svc := &Service{Name: name, Port: port, Status: statusInstalled}

	versionCh := make(chan ExecResult, 1)
	go func() { versionCh <- s.execNoTimeout(binary + " --version") }()
	select {
	case v := <-versionCh:
		svc.Version = parseVersion(v.Stdout)
	case <-ctx.Done():
		return svc
	}

	runningCh := make(chan bool, 1)
	go func() { runningCh <- s.probeRunning(name, binary) }()
	select {
	case running := <-runningCh:
		if running {
			svc.Status = statusRunning
		} else {
			svc.Status = statusStopped
		}
	case <-ctx.Done():
	}
	return svc
}

// probeRunning checks a service-specific proof first, falling back to
// systemctl then pgrep.
func (s *Session) probeRunning(name, binary string) bool {
	proofCmd := map[string]string{
		"mysql":      "mysqladmin ping",
		"redis":      "redis-cli ping",
		"postgresql": "pg_isready",
		"docker":     "docker info",
	}[name]
	if proofCmd != "" {
		if res := s.execNoTimeout(proofCmd); res.ExitCode == 0 {
			return true
		}
	}
	if res := s.execNoTimeout("systemctl is-active " + name); res.ExitCode == 0 {
		return true
	}
	if res := s.execNoTimeout("pgrep -x " + binary); res.ExitCode == 0 {
		return true
	}
	return false
}

// execNoTimeout runs ExecCommand and swallows the outer error, used
// internally by probes that already race their own context.
func (s *Session) execNoTimeout(cmd string) ExecResult {
	res, err := s.ExecCommand(cmd)
	if err != nil {
		return ExecResult{ExitCode: -1}
	}
	return res
}

// parseVersion extracts a version string from a --version banner: the
// first whitespace-delimited token that starts with a digit and
// contains a '.', with trailing ',' or ';' stripped. Falls back to the
// first line if no such token is found.
func parseVersion(output string) string {
	firstLine := output
	if idx := strings.IndexByte(output, '\n'); idx >= 0 {
		firstLine = output[:idx]
	}
	for _, field := range strings.Fields(output) {
		if len(field) == 0 {
			continue
		}
		if field[0] < '0' || field[0] > '9' {
			continue
		}
		if !strings.Contains(field, ".") {
			continue
		}
		return strings.TrimRight(field, ",;")
	}
	return strings.TrimSpace(firstLine)
}
