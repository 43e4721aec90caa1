package sshclient

import "testing"

func TestParseVersionFirstDottedNumericToken(t *testing.T) {
	cases := []struct {
		name   string
		output string
		want   string
	}{
		{"mysql", "mysql  Ver 8.0.34 for Linux on x86_64", "8.0.34"},
		{"redis", "redis-cli 7.0.11", "7.0.11"},
		{"psql", "psql (PostgreSQL) 15.4", "15.4"},
		{"docker", "Docker version 24.0.5, build ced0996", "24.0.5"},
		{"no version token", "unknown binary, no digits here", "unknown binary, no digits here"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := parseVersion(tc.output)
			if got != tc.want {
				t.Errorf("parseVersion(%q) = %q, want %q", tc.output, got, tc.want)
			}
		})
	}
}

func TestDetectServicesNotConnectedOmitsAll(t *testing.T) {
	s := New(DefaultConfig(), nil)
	results := s.DetectServices()
	if len(results) != 0 {
		t.Fatalf("got %d results, want 0 with no transport", len(results))
	}
}
