package cli

import (
	"bytes"
	"io"
	"net"
	"os"
	"strconv"
	"strings"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"taskmanager/config"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})
	err := rootCmd.Execute()
	resetFlags(rootCmd)
	return out.String(), err
}

// resetFlags restores defaults on cmd and its children so one Execute does
// not leak parsed values into the next.
func resetFlags(cmd *cobra.Command) {
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		f.Value.Set(f.DefValue)
		f.Changed = false
	})
	for _, child := range cmd.Commands() {
		resetFlags(child)
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.HasPrefix(out, "taskmanager dev") {
		t.Errorf("output = %q, want taskmanager dev prefix", out)
	}
}

func TestGenSecretCommand(t *testing.T) {
	t.Run("default length", func(t *testing.T) {
		out, err := execute(t, "gen-secret")
		if err != nil {
			t.Fatalf("gen-secret: %v", err)
		}
		if got := len(strings.TrimSpace(out)); got != 32 {
			t.Errorf("secret length = %d, want 32", got)
		}
	})

	t.Run("custom length", func(t *testing.T) {
		out, err := execute(t, "gen-secret", "--length", "48")
		if err != nil {
			t.Fatalf("gen-secret: %v", err)
		}
		if got := len(strings.TrimSpace(out)); got != 48 {
			t.Errorf("secret length = %d, want 48", got)
		}
	})

	t.Run("default after custom", func(t *testing.T) {
		out, err := execute(t, "gen-secret")
		if err != nil {
			t.Fatalf("gen-secret: %v", err)
		}
		if got := len(strings.TrimSpace(out)); got != 32 {
			t.Errorf("secret length = %d, want 32", got)
		}
	})

	t.Run("too short", func(t *testing.T) {
		if _, err := execute(t, "gen-secret", "--length", "4"); err == nil {
			t.Error("expected error for short secret")
		}
	})
}

func TestServeCommand_DatabaseUnreachable(t *testing.T) {
	log.SetOutput(io.Discard)
	t.Cleanup(func() { log.SetOutput(os.Stderr) })

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("finding free port: %v", err)
	}
	port := strconv.Itoa(ln.Addr().(*net.TCPAddr).Port)
	ln.Close()

	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("DB_CONNECT_TIMEOUT", "300ms")
	t.Setenv("LOG_LEVEL", "error")

	_, err = execute(t, "serve", "--host", "127.0.0.1", "--port", port, "--db-uri", "mongodb://127.0.0.1:1/taskmanager")
	if err == nil {
		t.Fatal("serve: expected database error")
	}
	if !strings.Contains(err.Error(), "database connection error") {
		t.Errorf("error = %v, want database connection error", err)
	}

	ln, err = net.Listen("tcp", net.JoinHostPort("127.0.0.1", port))
	if err != nil {
		t.Fatalf("port %s was left bound: %v", port, err)
	}
	ln.Close()
}

func TestApplyServeFlags(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantPort string
		wantHost string
		wantURI  string
	}{
		{
			name:     "no flags",
			wantPort: "5000",
			wantHost: "0.0.0.0",
			wantURI:  "mongodb://localhost:27017/taskmanager",
		},
		{
			name:     "port and db uri",
			args:     []string{"--port", "9000", "--db-uri", "bolt:///tmp/x.db"},
			wantPort: "9000",
			wantHost: "0.0.0.0",
			wantURI:  "bolt:///tmp/x.db",
		},
		{
			name:     "host only",
			args:     []string{"--host", "127.0.0.1"},
			wantPort: "5000",
			wantHost: "127.0.0.1",
			wantURI:  "mongodb://localhost:27017/taskmanager",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := &cobra.Command{Use: "serve"}
			bindServeFlags(cmd)
			if err := cmd.Flags().Parse(tt.args); err != nil {
				t.Fatalf("parse: %v", err)
			}

			cfg := &config.Config{Port: "5000", Host: "0.0.0.0", MongoURI: "mongodb://localhost:27017/taskmanager"}
			applyServeFlags(cmd, cfg)

			if cfg.Port != tt.wantPort {
				t.Errorf("Port = %q, want %q", cfg.Port, tt.wantPort)
			}
			if cfg.Host != tt.wantHost {
				t.Errorf("Host = %q, want %q", cfg.Host, tt.wantHost)
			}
			if got := cfg.DatabaseURI(); got != tt.wantURI {
				t.Errorf("DatabaseURI() = %q, want %q", got, tt.wantURI)
			}
		})
	}
}

func TestServeFlagsResetBetweenRuns(t *testing.T) {
	log.SetOutput(io.Discard)
	t.Cleanup(func() { log.SetOutput(os.Stderr) })
	t.Setenv("DB_CONNECT_TIMEOUT", "100ms")
	t.Setenv("LOG_LEVEL", "error")

	if _, err := execute(t, "serve", "--host", "127.0.0.1", "--db-uri", "ftp://example.com"); err == nil {
		t.Fatal("serve: expected error for unsupported scheme")
	}
	if serveCmd.Flags().Changed("host") {
		t.Error("host flag still marked as changed after the run")
	}
	if got, _ := serveCmd.Flags().GetString("host"); got != "" {
		t.Errorf("host flag = %q, want default", got)
	}
}
