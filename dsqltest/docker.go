package dsqltest

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"testing"

	"github.com/ory/dockertest"
)

type DockerServiceConfig[T any] struct {
	DockerImage    string
	DockerImageTag string
	InternalPort   int
	Environment    map[string]string
	Builder        func(host string, port int) (T, error)
}

// GetDockerService starts a throwaway container for the configured image
// and retries the builder until the service inside it accepts
// connections. Skipped in short mode.
func GetDockerService[T any](
	t *testing.T,
	config DockerServiceConfig[T],
) T {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping long-running test in short mode.")
	}

	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Fatalf("Could not construct pool: %s", err)
	}

	if err := pool.Client.Ping(); err != nil {
		t.Fatalf("Could not connect to Docker: %s", err)
	}

	environment := []string{}
	for key, value := range config.Environment {
		environment = append(environment, fmt.Sprintf("%s=%s", key, value))
	}

	resource, err := pool.Run(
		config.DockerImage,
		config.DockerImageTag,
		environment,
	)
	if err != nil {
		t.Fatalf("Could not start resource: %s", err)
	}

	t.Cleanup(func() {
		if err := pool.Purge(resource); err != nil {
			t.Fatalf("Could not purge resource: %s", err)
		}
	})

	dockerURL := os.Getenv("DOCKER_HOST")
	if dockerURL == "" {
		dockerURL = "tcp://" + resource.GetHostPort(fmt.Sprintf("%d/tcp", config.InternalPort))
	}

	u, err := url.Parse(dockerURL)
	if err != nil {
		t.Fatalf("Error parsing docker URL: %s", err)
	}

	port, _ := strconv.Atoi(u.Port())

	var service T
	if err := pool.Retry(func() error {
		var err error
		service, err = config.Builder(u.Hostname(), port)

		return err
	}); err != nil {
		t.Fatalf("Could not connect to service: %s", err)
	}

	return service
}
