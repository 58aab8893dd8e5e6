package sequence

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/saaga0h/jeeves-led/pkg/redis"
)

// Source supplies the raw lines of a command sequence
type Source interface {
	// Name identifies the source in logs
	Name() string

	// Lines reads the whole sequence. Failures wrap ErrSourceUnavailable.
	Lines(ctx context.Context) ([]string, error)
}

// FileSource reads commands from a text file, one per line
type FileSource struct {
	Path string
}

func (s FileSource) Name() string {
	return "file:" + s.Path
}

func (s FileSource) Lines(ctx context.Context) ([]string, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrSourceUnavailable, s.Path, err)
	}
	return splitLines(data)
}

func splitLines(data []byte) ([]string, error) {
	var lines []string
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
	}
	return lines, nil
}

// RedisSource reads commands from a Redis list, head first
type RedisSource struct {
	Client redis.Client
	Key    string
}

func (s RedisSource) Name() string {
	return "redis:" + s.Key
}

// Lines returns ErrSourceUnavailable for a missing or empty list, since Redis
// does not tell the two apart
func (s RedisSource) Lines(ctx context.Context) ([]string, error) {
	lines, err := s.Client.LRange(ctx, s.Key, 0, -1)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("%w: no commands at key %s", ErrSourceUnavailable, s.Key)
	}
	return lines, nil
}

// Upload replaces the list at key with the lines of src. Blank and comment
// lines are kept so line numbers in logs match the source file.
func Upload(ctx context.Context, client redis.Client, key string, src Source) (int, error) {
	lines, err := src.Lines(ctx)
	if err != nil {
		return 0, err
	}
	if len(lines) == 0 {
		return 0, fmt.Errorf("%s has no lines to upload", src.Name())
	}

	if err := client.Del(ctx, key); err != nil {
		return 0, err
	}
	values := make([]interface{}, len(lines))
	for i, line := range lines {
		values[i] = line
	}
	if err := client.RPush(ctx, key, values...); err != nil {
		return 0, err
	}
	return len(lines), nil
}
