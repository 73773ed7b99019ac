package transport

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/tls"
	"crypto/x509"
	"encoding/binary"
	"encoding/pem"
	"fmt"
	"io"
	"math/big"
	"time"

	"github.com/quic-go/quic-go"
)

// LAN fast path: when discovery finds the paired device on the local
// network, a direct QUIC stream replaces the relayed WebRTC negotiation.
// Frames are length-prefixed so the stream carries the same envelope
// payloads as the data channel.

const lanProto = "tether-lan"

// maxLANFrame bounds a single envelope frame (icons dominate).
const maxLANFrame = 16 * 1024 * 1024

// LANChannel is a direct QUIC stream to the peer, framing payloads the same
// way the data channel delivers them.
type LANChannel struct {
	conn   *quic.Conn
	stream *quic.Stream
}

// ListenLAN waits for the peer to dial us on the given port. Blocks until a
// connection and its first stream arrive or ctx expires.
func ListenLAN(ctx context.Context, port int) (*LANChannel, error) {
	tlsConf, err := generateTLSConfig()
	if err != nil {
		return nil, err
	}

	quicConfig := &quic.Config{
		MaxIdleTimeout:  30 * time.Second,
		KeepAlivePeriod: 10 * time.Second,
	}

	listener, err := quic.ListenAddr(fmt.Sprintf(":%d", port), tlsConf, quicConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to listen: %w", err)
	}
	defer listener.Close()

	conn, err := listener.Accept(ctx)
	if err != nil {
		return nil, fmt.Errorf("accept failed: %w", err)
	}

	stream, err := conn.AcceptStream(ctx)
	if err != nil {
		return nil, fmt.Errorf("accept stream failed: %w", err)
	}

	return &LANChannel{conn: conn, stream: stream}, nil
}

// DialLAN connects to a listening peer at addr ("ip:port" from discovery).
func DialLAN(ctx context.Context, addr string) (*LANChannel, error) {
	tlsConf := &tls.Config{
		InsecureSkipVerify: true, // Self-signed certs for P2P
		NextProtos:         []string{lanProto},
	}

	conn, err := quic.DialAddr(ctx, addr, tlsConf, &quic.Config{
		MaxIdleTimeout:  30 * time.Second,
		KeepAlivePeriod: 10 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to dial: %w", err)
	}

	stream, err := conn.OpenStreamSync(ctx)
	if err != nil {
		conn.CloseWithError(0, "stream open failed")
		return nil, fmt.Errorf("open stream failed: %w", err)
	}

	return &LANChannel{conn: conn, stream: stream}, nil
}

// Send writes one length-prefixed frame.
func (c *LANChannel) Send(payload []byte) error {
	header := make([]byte, 4)
	binary.LittleEndian.PutUint32(header, uint32(len(payload)))

	if _, err := c.stream.Write(header); err != nil {
		return fmt.Errorf("lan write header: %w", err)
	}
	if _, err := c.stream.Write(payload); err != nil {
		return fmt.Errorf("lan write payload: %w", err)
	}
	return nil
}

// Receive reads the next frame. Returns io.EOF when the peer closes.
func (c *LANChannel) Receive() ([]byte, error) {
	header := make([]byte, 4)
	if _, err := io.ReadFull(c.stream, header); err != nil {
		return nil, err
	}

	frameLen := binary.LittleEndian.Uint32(header)
	if frameLen > maxLANFrame {
		return nil, fmt.Errorf("oversized frame: %d", frameLen)
	}

	payload := make([]byte, frameLen)
	if _, err := io.ReadFull(c.stream, payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// Close shuts down the stream and the connection.
func (c *LANChannel) Close() error {
	c.stream.Close()
	return c.conn.CloseWithError(0, "closed")
}

// generateTLSConfig generates a self-signed certificate for QUIC
func generateTLSConfig() (*tls.Config, error) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return nil, err
	}
	template := x509.Certificate{
		SerialNumber: big.NewInt(1),
	}
	certDER, err := x509.CreateCertificate(rand.Reader, &template, &template, &key.PublicKey, key)
	if err != nil {
		return nil, err
	}
	keyPEM := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})
	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: certDER})

	tlsCert, err := tls.X509KeyPair(certPEM, keyPEM)
	if err != nil {
		return nil, err
	}
	return &tls.Config{
		Certificates: []tls.Certificate{tlsCert},
		NextProtos:   []string{lanProto},
	}, nil
}
