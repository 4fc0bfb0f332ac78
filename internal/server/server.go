// Package server implements the TCP front end of spec.md §6: one
// goroutine per accepted connection, line-buffered command dispatch
// through internal/protocol into internal/store, and a shutdown model
// based on a polled accept deadline. Grounded on
// original_source/kvstore/network/connection.py's recv-buffer-and-split
// loop, translated into bufio.Scanner-per-connection, the idiomatic Go
// equivalent of manually buffering and splitting on a delimiter.
package server

import (
	"bufio"
	"net"
	"sync"
	"time"

	"github.com/ignitekv/ignite/internal/protocol"
	"github.com/ignitekv/ignite/internal/store"
	"go.uber.org/zap"
)

// acceptPollInterval bounds how long Close() takes to be observed by the
// accept loop, per spec.md §5's "observed within one poll interval"
// shutdown model.
const acceptPollInterval = 250 * time.Millisecond

// Server is the IgniteKV TCP front end.
type Server struct {
	store      *store.Store
	followerMode bool
	log        *zap.SugaredLogger

	listener *net.TCPListener
	closing  chan struct{}
	conns    sync.WaitGroup
}

// New builds a Server bound to the given store.
func New(s *store.Store, followerMode bool, log *zap.SugaredLogger) *Server {
	return &Server{
		store:        s,
		followerMode: followerMode,
		log:          log,
		closing:      make(chan struct{}),
	}
}

// Serve binds host:port and runs the accept loop until Close is called.
func (srv *Server) Serve(host string, port int) error {
	addr := &net.TCPAddr{IP: net.ParseIP(host), Port: port}
	ln, err := net.ListenTCP("tcp", addr)
	if err != nil {
		return err
	}
	srv.listener = ln

	srv.log.Infow("server listening", "host", host, "port", port, "followerMode", srv.followerMode)

	for {
		ln.SetDeadline(time.Now().Add(acceptPollInterval))
		conn, err := ln.Accept()
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				select {
				case <-srv.closing:
					srv.conns.Wait()
					return nil
				default:
					continue
				}
			}
			select {
			case <-srv.closing:
				srv.conns.Wait()
				return nil
			default:
				srv.log.Errorw("accept failed", "error", err)
				continue
			}
		}

		srv.conns.Add(1)
		go srv.handleConn(conn)
	}
}

// Close signals the accept loop to stop and closes the listener. It does
// not wait: Serve returns once every open connection has been closed.
func (srv *Server) Close() error {
	close(srv.closing)
	if srv.listener != nil {
		return srv.listener.Close()
	}
	return nil
}

func (srv *Server) handleConn(conn net.Conn) {
	defer srv.conns.Done()
	defer conn.Close()

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	for scanner.Scan() {
		line := scanner.Bytes()
		response := srv.dispatch(line)
		if response == nil {
			srv.log.Warnw("handler returned no response", "line", string(line))
			response = protocol.FormatError("Internal server error")
		}
		if _, err := conn.Write(append(append([]byte{}, response...), '\n')); err != nil {
			return
		}
	}
}

func (srv *Server) dispatch(line []byte) []byte {
	req, err := protocol.Parse(line)
	if err != nil {
		return protocol.FormatError(err.Error())
	}

	if srv.followerMode {
		switch req.Command {
		case protocol.CommandPut, protocol.CommandBatchPut, protocol.CommandDelete:
			return protocol.FormatError("replica nodes accept mutations only via REPLICATE commands")
		}
	}

	switch req.Command {
	case protocol.CommandPut:
		if err := srv.store.Put(req.Key, req.Value); err != nil {
			return protocol.FormatError(err.Error())
		}
		return protocol.FormatOK()

	case protocol.CommandBatchPut:
		if err := srv.store.BatchPut(req.Keys, req.Values); err != nil {
			return protocol.FormatError(err.Error())
		}
		return protocol.FormatOK()

	case protocol.CommandRead:
		value, ok, err := srv.store.Read(req.Key)
		if err != nil {
			return protocol.FormatError(err.Error())
		}
		if !ok {
			return protocol.FormatNotFound()
		}
		return protocol.FormatValue(value)

	case protocol.CommandReadRange:
		values, err := srv.store.Range(req.Key, req.Value)
		if err != nil {
			return protocol.FormatError(err.Error())
		}
		if len(values) == 0 {
			return protocol.FormatNotFound()
		}
		keys := make([]string, 0, len(values))
		vals := make([][]byte, 0, len(values))
		for k, v := range values {
			keys = append(keys, k)
			vals = append(vals, v)
		}
		return protocol.FormatRange(keys, vals)

	case protocol.CommandDelete:
		deleted, err := srv.store.Delete(req.Key)
		if err != nil {
			return protocol.FormatError(err.Error())
		}
		if !deleted {
			return protocol.FormatNotFound()
		}
		return protocol.FormatOK()

	case protocol.CommandReplicatePut:
		if !srv.followerMode {
			return protocol.FormatError("REPLICATE commands only accepted on replica nodes")
		}
		if err := srv.store.Put(req.Key, req.Value); err != nil {
			return protocol.FormatError(err.Error())
		}
		return protocol.FormatOK()

	case protocol.CommandReplicateBatch:
		if !srv.followerMode {
			return protocol.FormatError("REPLICATE commands only accepted on replica nodes")
		}
		if err := srv.store.BatchPut(req.Keys, req.Values); err != nil {
			return protocol.FormatError(err.Error())
		}
		return protocol.FormatOK()

	case protocol.CommandReplicateDel:
		if !srv.followerMode {
			return protocol.FormatError("REPLICATE commands only accepted on replica nodes")
		}
		if _, err := srv.store.Delete(req.Key); err != nil {
			return protocol.FormatError(err.Error())
		}
		return protocol.FormatOK()

	default:
		return protocol.FormatError("unknown command")
	}
}
