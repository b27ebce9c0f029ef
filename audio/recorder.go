// Package audio записывает и воспроизводит голосовые заметки к событиям
// через системные утилиты (arecord/aplay).
package audio

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"calendar_server_go/apperrors"
	"calendar_server_go/logger"
)

// Recorder - запись и воспроизведение голосовых заметок.
type Recorder interface {
	RequestPermission(ctx context.Context) error
	Start(ctx context.Context) error
	Stop(ctx context.Context) (uri string, duration time.Duration, err error)
	Play(ctx context.Context, uri string) error
}

var (
	// ErrNotRecording - Stop вызван без активной записи.
	ErrNotRecording = errors.New("audio: not recording")
	// ErrAlreadyRecording - Start вызван во время записи.
	ErrAlreadyRecording = errors.New("audio: already recording")
)

// Команды по умолчанию; путь к файлу добавляется последним аргументом.
var (
	DefaultRecordCommand = []string{"arecord", "-q", "-f", "cd", "-t", "wav"}
	DefaultPlayCommand   = []string{"aplay", "-q"}
)

// CommandRecorder пишет звук внешней командой в каталог Dir.
type CommandRecorder struct {
	Dir           string
	RecordCommand []string
	PlayCommand   []string

	lookPath func(string) (string, error)
	now      func() time.Time
	log      *logger.Logger

	mu      sync.Mutex
	cmd     *exec.Cmd
	waitErr chan error
	path    string
	started time.Time
}

func NewCommandRecorder(dir string) *CommandRecorder {
	return &CommandRecorder{
		Dir:           dir,
		RecordCommand: DefaultRecordCommand,
		PlayCommand:   DefaultPlayCommand,
		lookPath:      exec.LookPath,
		now:           time.Now,
		log:           logger.L().With("component", "audio"),
	}
}

// RequestPermission проверяет, что каталог записей доступен для записи
// и что нужные утилиты установлены.
func (r *CommandRecorder) RequestPermission(ctx context.Context) error {
	const op = "audio.RequestPermission"

	if err := os.MkdirAll(r.Dir, 0o755); err != nil {
		return apperrors.Permission(op, fmt.Sprintf("recordings directory is not writable: %v", err))
	}
	tmp, err := os.CreateTemp(r.Dir, ".writable-*")
	if err != nil {
		return apperrors.Permission(op, fmt.Sprintf("recordings directory is not writable: %v", err))
	}
	tmp.Close()
	os.Remove(tmp.Name())

	for _, argv := range [][]string{r.RecordCommand, r.PlayCommand} {
		if len(argv) == 0 {
			return apperrors.CapabilityUnavailable(op, "audio command is not configured")
		}
		if _, err := r.lookPath(argv[0]); err != nil {
			return apperrors.CapabilityUnavailable(op, fmt.Sprintf("%s is not installed", argv[0]))
		}
	}
	return nil
}

// Start запускает запись в новый файл.
func (r *CommandRecorder) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cmd != nil {
		return ErrAlreadyRecording
	}
	if err := r.RequestPermission(ctx); err != nil {
		return err
	}

	path := filepath.Join(r.Dir, uuid.New().String()+".wav")
	argv := append(append([]string{}, r.RecordCommand...), path)
	cmd := exec.Command(argv[0], argv[1:]...)
	if err := cmd.Start(); err != nil {
		return apperrors.CapabilityUnavailable("audio.Start", fmt.Sprintf("failed to start recording: %v", err))
	}

	waitErr := make(chan error, 1)
	go func() { waitErr <- cmd.Wait() }()

	r.cmd = cmd
	r.waitErr = waitErr
	r.path = path
	r.started = r.now()
	r.log.Debug("Recording started", "path", path)
	return nil
}

// Stop останавливает запись и возвращает путь к файлу и длительность,
// округленную до целых секунд.
func (r *CommandRecorder) Stop(ctx context.Context) (string, time.Duration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cmd == nil {
		return "", 0, ErrNotRecording
	}
	cmd, waitErr, path := r.cmd, r.waitErr, r.path
	elapsed := r.now().Sub(r.started)
	r.cmd, r.waitErr, r.path = nil, nil, ""

	if cmd.Process != nil {
		cmd.Process.Signal(os.Interrupt)
	}
	select {
	case <-waitErr:
		// Код выхода после SIGINT не интересен.
	case <-ctx.Done():
		cmd.Process.Kill()
		<-waitErr
		return "", 0, ctx.Err()
	}

	seconds := math.Round(elapsed.Seconds())
	r.log.Debug("Recording stopped", "path", path, "seconds", seconds)
	return path, time.Duration(seconds) * time.Second, nil
}

// Play воспроизводит файл и ждет окончания.
func (r *CommandRecorder) Play(ctx context.Context, uri string) error {
	const op = "audio.Play"

	if uri == "" {
		return apperrors.Validation(op, "audio uri is required")
	}
	if len(r.PlayCommand) == 0 {
		return apperrors.CapabilityUnavailable(op, "audio command is not configured")
	}
	if _, err := r.lookPath(r.PlayCommand[0]); err != nil {
		return apperrors.CapabilityUnavailable(op, fmt.Sprintf("%s is not installed", r.PlayCommand[0]))
	}

	argv := append(append([]string{}, r.PlayCommand...), uri)
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("play %s: %w: %s", uri, err, out)
	}
	return nil
}

// Recording сообщает, идет ли запись.
func (r *CommandRecorder) Recording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cmd != nil
}
