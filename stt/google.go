package stt

import (
	"context"
	"fmt"
	"io"
	"sync"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"go.uber.org/zap"

	"github.com/careplus-labs/voice-relay/config"
	"github.com/careplus-labs/voice-relay/interfaces"
)

// GoogleClient streams recognition through Google Cloud Speech. It relies
// on Application Default Credentials for authentication.
type GoogleClient struct {
	client  *speech.Client
	stream  speechpb.Speech_StreamingRecognizeClient
	events  chan interfaces.TranscriptEvent
	errs    chan error
	sendMu  sync.Mutex
	closeFn sync.Once
	logger  *zap.Logger
}

// DialGoogle opens a streaming recognize session configured to match the
// relay's audio format (16-bit linear PCM from the browser).
func DialGoogle(ctx context.Context, cfg *config.DeepgramConfig, logger *zap.Logger) (*GoogleClient, error) {
	client, err := speech.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create speech client: %w", err)
	}

	stream, err := client.StreamingRecognize(ctx)
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("could not start streaming recognize: %w", err)
	}

	if err := stream.Send(&speechpb.StreamingRecognizeRequest{
		StreamingRequest: &speechpb.StreamingRecognizeRequest_StreamingConfig{
			StreamingConfig: &speechpb.StreamingRecognitionConfig{
				Config: &speechpb.RecognitionConfig{
					Encoding:        speechpb.RecognitionConfig_LINEAR16,
					SampleRateHertz: int32(cfg.SampleRate),
					LanguageCode:    cfg.Language,
				},
				InterimResults: cfg.InterimResults,
			},
		},
	}); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("could not send streaming config: %w", err)
	}

	c := &GoogleClient{
		client: client,
		stream: stream,
		events: make(chan interfaces.TranscriptEvent, 16),
		errs:   make(chan error, 1),
		logger: logger,
	}
	go c.recvLoop()
	return c, nil
}

func (c *GoogleClient) recvLoop() {
	defer close(c.events)
	for {
		resp, err := c.stream.Recv()
		if err == io.EOF {
			return
		}
		if err != nil {
			c.errs <- fmt.Errorf("cannot stream results: %w", err)
			return
		}
		for _, result := range resp.Results {
			if len(result.Alternatives) == 0 {
				continue
			}
			c.events <- interfaces.TranscriptEvent{
				Text:    result.Alternatives[0].Transcript,
				IsFinal: result.IsFinal,
			}
		}
	}
}

func (c *GoogleClient) SendAudio(data []byte) error {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	return c.stream.Send(&speechpb.StreamingRecognizeRequest{
		StreamingRequest: &speechpb.StreamingRecognizeRequest_AudioContent{
			AudioContent: data,
		},
	})
}

func (c *GoogleClient) Events() <-chan interfaces.TranscriptEvent {
	return c.events
}

func (c *GoogleClient) Errors() <-chan error {
	return c.errs
}

func (c *GoogleClient) Close() error {
	var err error
	c.closeFn.Do(func() {
		c.sendMu.Lock()
		if sendErr := c.stream.CloseSend(); sendErr != nil {
			c.logger.Debug("google speech close send failed", zap.Error(sendErr))
		}
		c.sendMu.Unlock()
		err = c.client.Close()
	})
	return err
}
