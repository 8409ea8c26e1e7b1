// Package sftpclient implements the SFTP-backed location-roster extractor:
// it connects to a tenant's SFTP server, downloads a location spreadsheet to
// a temporary file, and parses it into normalized Location records.
package sftpclient

import (
	"context"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"

	"github.com/ingestio/enginecore/internal/model"
)

// connectTimeout bounds each stage of establishing an SFTP session: the TCP
// dial, the SSH handshake (banner exchange and authentication share one
// deadline), and opening the SFTP channel each get their own budget. The
// file download that follows is not bounded by it.
const connectTimeout = 30 * time.Second

// Client downloads and parses a tenant's location roster over SFTP.
type Client struct {
	cfg model.SFTPConfig
}

// NewClient validates cfg and returns a Client. It never dials the server;
// connection happens lazily in FetchLocations so a bad tenant configuration
// never blocks on the network.
func NewClient(cfg model.SFTPConfig) (*Client, error) {
	if !cfg.Valid() {
		return nil, fmt.Errorf("sftpclient: configuration incomplete")
	}
	if cfg.Port == 0 {
		cfg.Port = 22
	}
	if cfg.LocationsFile == "" {
		cfg.LocationsFile = "Locations_List.xlsx"
	}
	return &Client{cfg: cfg}, nil
}

func (c *Client) dial(ctx context.Context) (*ssh.Client, *sftp.Client, error) {
	sshCfg := &ssh.ClientConfig{
		User: c.cfg.Username,
		Auth: []ssh.AuthMethod{
			ssh.Password(c.cfg.Password),
		},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(), //nolint:gosec // tenant SFTP hosts are not pinned upstream either
		Timeout:         connectTimeout,
	}

	addr := net.JoinHostPort(c.cfg.Host, fmt.Sprintf("%d", c.cfg.Port))

	dialer := net.Dialer{Timeout: connectTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, nil, fmt.Errorf("sftpclient: dial %s: %w", addr, err)
	}

	if err := conn.SetDeadline(time.Now().Add(connectTimeout)); err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("sftpclient: set connection deadline: %w", err)
	}

	sshConn, chans, reqs, err := ssh.NewClientConn(conn, addr, sshCfg)
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("sftpclient: ssh handshake with %s: %w", addr, err)
	}
	// Give opening the SFTP channel a fresh budget of its own.
	if err := conn.SetDeadline(time.Now().Add(connectTimeout)); err != nil {
		sshConn.Close()
		return nil, nil, fmt.Errorf("sftpclient: set connection deadline: %w", err)
	}

	client := ssh.NewClient(sshConn, chans, reqs)

	sftpClient, err := sftp.NewClient(client)
	if err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("sftpclient: open sftp channel to %s: %w", addr, err)
	}

	// The session is open; clear the deadline so the download is not cut off.
	if err := conn.SetDeadline(time.Time{}); err != nil {
		sftpClient.Close()
		client.Close()
		return nil, nil, fmt.Errorf("sftpclient: clear connection deadline: %w", err)
	}

	return client, sftpClient, nil
}

// downloadToTemp copies the configured locations file from the SFTP server
// into a local temp file and returns its path. The caller is responsible for
// removing it; downloadToTemp itself cleans up on every error path so it
// never leaks a partial file.
func (c *Client) downloadToTemp(ctx context.Context) (string, error) {
	sshClient, sftpClient, err := c.dial(ctx)
	if err != nil {
		return "", err
	}
	defer sshClient.Close()
	defer sftpClient.Close()

	remotePath := c.cfg.RemotePath + "/" + c.cfg.LocationsFile

	remote, err := sftpClient.Open(remotePath)
	if err != nil {
		return "", fmt.Errorf("sftpclient: open remote file %s: %w", remotePath, err)
	}
	defer remote.Close()

	local, err := os.CreateTemp("", "locations-*.xlsx")
	if err != nil {
		return "", fmt.Errorf("sftpclient: create temp file: %w", err)
	}
	defer local.Close()

	written, err := remote.WriteTo(local)
	if err != nil {
		os.Remove(local.Name())
		return "", fmt.Errorf("sftpclient: download %s: %w", remotePath, err)
	}
	if written == 0 {
		os.Remove(local.Name())
		return "", fmt.Errorf("sftpclient: downloaded file %s is empty", remotePath)
	}

	return local.Name(), nil
}

// FetchLocations downloads and parses the tenant's location roster. The
// downloaded temp file is always removed before FetchLocations returns,
// regardless of whether parsing succeeds.
func (c *Client) FetchLocations(ctx context.Context) ([]model.Location, error) {
	path, err := c.downloadToTemp(ctx)
	if err != nil {
		return nil, err
	}
	defer os.Remove(path)

	return parseLocationsFile(path)
}
