package tlsutil

import (
	"path/filepath"
	"testing"
)

func TestServerTLSConfig_MissingFiles(t *testing.T) {
	dir := t.TempDir()
	_, err := ServerTLSConfig(filepath.Join(dir, "server.pem"), filepath.Join(dir, "server-key.pem"))
	if err == nil {
		t.Fatal("expected error for missing key pair")
	}
}
