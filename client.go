package main

import (
	"contextwin/logger"
	"fmt"
	"io"
	"net"
	"os"
	"time"
)

// Client is the foreground half of the split process: Neovim spawns it
// with the RPC channel on stdio, and it relays that channel to whichever
// daemon owns the socket, starting one if none is alive.
type Client struct {
	socketPath string
}

func NewClient() *Client {
	return &Client{
		socketPath: getSocketPath(),
	}
}

// Connect dials the daemon socket and relays stdio both ways until
// either side closes. Neovim sees the daemon as if it were a plain
// stdio job.
func (c *Client) Connect() error {
	conn, err := c.dial()
	if err != nil {
		return err
	}
	defer conn.Close()

	go func() {
		io.Copy(conn, os.Stdin)
		conn.Close()
	}()

	io.Copy(os.Stdout, conn)
	return nil
}

// dial retries for a short window. The daemon writes its PID file
// before the socket is listening, so a freshly started daemon can be
// "running" a beat before it accepts.
func (c *Client) dial() (net.Conn, error) {
	var err error
	for i := 0; i < 20; i++ {
		var conn net.Conn
		conn, err = net.Dial("unix", c.socketPath)
		if err == nil {
			return conn, nil
		}
		time.Sleep(50 * time.Millisecond)
	}
	return nil, fmt.Errorf("connecting to daemon socket %s: %w", c.socketPath, err)
}

func (c *Client) EnsureDaemonRunning() error {
	running, pid := isDaemonRunning()
	if running {
		logger.Debug("reusing daemon with PID %d", pid)
		return nil
	}

	return c.startDaemon()
}

func (c *Client) startDaemon() error {
	logger.Debug("spawning daemon...")

	_, err := os.StartProcess(os.Args[0], []string{os.Args[0], "--daemon"}, &os.ProcAttr{
		Env:   os.Environ(),
		Files: []*os.File{nil, nil, nil},
	})
	if err != nil {
		return fmt.Errorf("spawning daemon: %w", err)
	}

	return c.waitForDaemon()
}

func (c *Client) waitForDaemon() error {
	for i := 0; i < 50; i++ {
		if running, _ := isDaemonRunning(); running {
			logger.Debug("daemon is up")
			return nil
		}
		time.Sleep(100 * time.Millisecond)
	}
	return fmt.Errorf("daemon did not come up within 5s")
}
