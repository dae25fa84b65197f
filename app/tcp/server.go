// Package tcp implements the connection engine: it accepts client
// connections, frames requests out of the byte stream and writes
// replies back in arrival order.
package tcp

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/VictoriaMetrics/metrics"
	"github.com/hashbeam/snapkv/app/commands"
	"github.com/hashbeam/snapkv/app/config"
	"github.com/hashbeam/snapkv/app/resp"
	"github.com/hashbeam/snapkv/app/store"
	"github.com/rs/zerolog/log"
)

var connectionsAccepted = metrics.NewCounter("snapkv_connections_accepted_total")

type Server struct {
	listAddr    string
	listener    net.Listener
	shutdown    chan struct{}
	datastore   store.DataStore
	cfg         config.Configuration
	wg          sync.WaitGroup
	stopOnce    sync.Once
	connections chan net.Conn
}

func NewServer(cfg config.Configuration, datastore store.DataStore) (*Server, error) {
	ln, err := net.Listen("tcp", cfg.ListenAddr())
	if err != nil {
		return nil, fmt.Errorf("bind %s: %w", cfg.ListenAddr(), err)
	}

	return &Server{
		listAddr:    cfg.ListenAddr(),
		listener:    ln,
		shutdown:    make(chan struct{}),
		datastore:   datastore,
		cfg:         cfg,
		connections: make(chan net.Conn),
	}, nil
}

// Addr returns the address the listener is bound to.
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

func (s *Server) Start() {
	s.wg.Add(2)
	go s.acceptConnections()
	go s.handleConnections()
}

// Stop closes the listener and waits briefly for connection handlers to
// drain. Safe to call more than once.
func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		close(s.shutdown)
		s.listener.Close()

		done := make(chan struct{})
		go func() {
			s.wg.Wait()
			close(done)
		}()

		select {
		case <-done:
		case <-time.After(time.Second):
			log.Warn().Msg("timed out waiting for connections to finish")
		}
	})
}

func (s *Server) acceptConnections() {
	defer s.wg.Done()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.shutdown:
				return
			default:
				log.Error().Err(err).Msg("accept failed")
				continue
			}
		}

		connectionsAccepted.Inc()

		select {
		case s.connections <- conn:
		case <-s.shutdown:
			conn.Close()
			return
		}
	}
}

func (s *Server) handleConnections() {
	defer s.wg.Done()

	for {
		select {
		case <-s.shutdown:
			return
		case conn := <-s.connections:
			s.wg.Add(1)
			go func() {
				defer s.wg.Done()
				s.handleConnection(conn)
			}()
		}
	}
}

func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()

	remote := conn.RemoteAddr().String()
	log.Debug().Str("addr", remote).Msg("client connected")

	var content bytes.Buffer
	buf := make([]byte, 4096)

	for {
		n, err := conn.Read(buf)
		if err != nil {
			if err == io.EOF {
				log.Debug().Str("addr", remote).Msg("client disconnected")
			} else {
				log.Debug().Str("addr", remote).Err(err).Msg("read error")
			}
			return
		}

		content.Write(buf[:n])

		// Drain every complete request in the buffer before reading
		// again, leaving any pipelined tail in place.
		for {
			args, consumed, err := resp.DecodeCommand(content.Bytes())

			if errors.Is(err, resp.ErrIncomplete) {
				break
			}

			if err != nil {
				log.Debug().Str("addr", remote).Err(err).Msg("malformed request")
				conn.Write([]byte("-ERR Protocol error\r\n"))
				return
			}

			content.Next(consumed)

			com, err := commands.NewCommand(args)
			if err != nil {
				conn.Write([]byte(fmt.Sprintf("-ERR %v\r\n", err)))
				continue
			}

			reply, err := com.Execute(commands.DefaultHandlers, commands.RequestContext{
				Store:  s.datastore,
				Config: s.cfg,
			})
			if err != nil {
				conn.Write([]byte(fmt.Sprintf("-ERR %v\r\n", err)))
				continue
			}

			if _, err := conn.Write(reply); err != nil {
				log.Debug().Str("addr", remote).Err(err).Msg("write error")
				return
			}
		}
	}
}
