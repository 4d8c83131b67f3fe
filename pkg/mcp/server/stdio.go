package server

import (
	"bufio"
	"context"
	"io"
	"strings"
	"sync"

	// Packages
	zerolog "github.com/rs/zerolog"
)

///////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// RunStdio reads newline-delimited requests from r and writes responses to
// w, until the input ends or the context is done
func (server *Server) RunStdio(ctx context.Context, r io.Reader, w io.Writer) error {
	// Create a new buffered reader and writer
	reader := bufio.NewReader(r)
	writer := bufio.NewWriter(w)
	log := zerolog.Ctx(ctx)

	// Writer channel will write until the input ends
	writerCh := make(chan []byte)
	var writerWg sync.WaitGroup
	writerWg.Go(func() {
		for data := range writerCh {
			if _, err := writer.Write(data); err != nil {
				log.Warn().Err(err).Msg("stdio write")
				continue
			}
			writer.Flush()
		}
	})
	defer writerWg.Wait()
	defer close(writerCh)

	// Requests are processed in the background, and complete before the writer closes
	var wg sync.WaitGroup
	defer wg.Wait()

	// Continue receiving input until the context is done
	var request string
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if part, isPrefix, err := reader.ReadLine(); err != nil {
			if err == io.EOF {
				break
			}
			return err
		} else if isPrefix {
			request += string(part)
			continue
		} else {
			request += string(part)
		}
		if request = strings.TrimSpace(request); request == "" {
			continue
		}

		// Process a request in the background
		payload := []byte(request)
		wg.Go(func() {
			response, err := server.processRequest(ctx, payload)
			if err != nil {
				log.Warn().Err(err).Msg("stdio request")
			} else if response != nil {
				writerCh <- append(response, '\n')
			}
		})

		// Reset the request
		request = ""
	}

	// Return success
	return nil
}
