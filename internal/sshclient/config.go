package sshclient

// AuthKind selects which credential form a Config carries.
type AuthKind int

const (
	AuthPassword AuthKind = iota
	AuthKeyFile
	AuthAgent
)

// KeyFileCredential names a private key on disk and its optional
// decryption passphrase.
type KeyFileCredential struct {
	Path       string
	Passphrase string // empty if the key is unencrypted
}

// Auth is one of Password(string) | KeyFile{path, optional passphrase} | Agent.
type Auth struct {
	Kind     AuthKind
	Password string
	KeyFile  KeyFileCredential
}

// PasswordAuth builds a password credential.
func PasswordAuth(password string) Auth {
	return Auth{Kind: AuthPassword, Password: password}
}

// KeyFileAuth builds a private-key-file credential.
func KeyFileAuth(path, passphrase string) Auth {
	return Auth{Kind: AuthKeyFile, KeyFile: KeyFileCredential{Path: path, Passphrase: passphrase}}
}

// AgentAuth builds an SSH-agent credential; Session.Connect rejects it
// with ErrUnsupported today (see internal/sshagent for the retained
// groundwork).
func AgentAuth() Auth {
	return Auth{Kind: AuthAgent}
}

// Config is the SSH Config of the data model: the target and the
// chosen authentication method. Default matches the original's
// localhost:22/root/Agent default.
type Config struct {
	Host     string
	Port     uint16
	Username string
	Auth     Auth
}

// DefaultConfig mirrors the original implementation's zero-value
// target: localhost:22 as root via the agent.
func DefaultConfig() Config {
	return Config{Host: "localhost", Port: 22, Username: "root", Auth: AgentAuth()}
}
