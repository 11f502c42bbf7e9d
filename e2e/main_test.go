package e2e

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"
	"testing"
	"time"
)

const serverPort = "8081"

var appURL = "http://localhost:" + serverPort

func TestMain(m *testing.M) {
	os.Exit(runTestMain(m))
}

// serverPackage finds cmd/server whether tests run from e2e/ or the module root.
func serverPackage() (string, error) {
	for _, dir := range []string{"../cmd/server", "./cmd/server"} {
		if _, err := os.Stat(dir); err == nil {
			return dir, nil
		}
	}
	return "", errors.New("could not find cmd/server to build")
}

func runTestMain(m *testing.M) int {
	// Binary, database and config live in a directory owned by this run.
	workDir, err := os.MkdirTemp("", "finstress-e2e-")
	if err != nil {
		fmt.Printf("Failed to create work dir: %v\n", err)
		return 1
	}
	defer os.RemoveAll(workDir)

	pkg, err := serverPackage()
	if err != nil {
		fmt.Println(err)
		return 1
	}
	binary := filepath.Join(workDir, "finstress-test")
	if output, err := exec.Command("go", "build", "-o", binary, pkg).CombinedOutput(); err != nil {
		fmt.Printf("Failed to build app: %v\n%s\n", err, output)
		return 1
	}

	server := exec.Command(binary)
	server.Env = append(os.Environ(),
		"FINSTRESS_PORT="+serverPort,
		"FINSTRESS_DB_PATH="+filepath.Join(workDir, "finstress.db"),
		"FINSTRESS_CONFIG="+filepath.Join(workDir, "none.yaml"),
		"FINSTRESS_CHAT_APIKEY=",
	)
	server.Stdout = os.Stdout
	server.Stderr = os.Stderr
	if err := server.Start(); err != nil {
		fmt.Printf("Failed to start server: %v\n", err)
		return 1
	}
	defer stopServer(server)

	if !waitHealthy(appURL+"/healthz", 5*time.Second) {
		fmt.Println("Server failed to start or is not reachable")
		return 1
	}

	return m.Run()
}

func waitHealthy(url string, limit time.Duration) bool {
	deadline := time.Now().Add(limit)
	for time.Now().Before(deadline) {
		resp, err := http.Get(url)
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return true
			}
		}
		time.Sleep(100 * time.Millisecond)
	}
	return false
}

// stopServer asks for a graceful shutdown and kills the process if it lingers.
func stopServer(server *exec.Cmd) {
	if err := server.Process.Signal(syscall.SIGTERM); err != nil {
		_ = server.Process.Kill()
		return
	}
	done := make(chan error, 1)
	go func() { done <- server.Wait() }()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		fmt.Println("Server did not stop in time, killing it")
		_ = server.Process.Kill()
		<-done
	}
}
