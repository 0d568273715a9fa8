package tasks

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"smartdash/ml"
)

// EventTasksChanged is published with the full task list after any change.
const EventTasksChanged = "tasks_changed"

// Publisher receives task-list change events.
type Publisher interface {
	Publish(eventType string, payload any) error
}

// Option configures a Service.
type Option func(*Service)

// WithRand replaces the time-seeded source used for suggestions.
func WithRand(rnd *rand.Rand) Option {
	return func(s *Service) {
		s.rnd = rnd
	}
}

// WithPublisher sends the task list to p after every change.
func WithPublisher(p Publisher) Option {
	return func(s *Service) {
		s.publisher = p
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// Service implements the add, view, remove, predict and suggest actions.
// No model outlives a call.
type Service struct {
	store     *Store
	publisher Publisher
	logger    *zap.Logger

	rndMu sync.Mutex
	rnd   *rand.Rand
}

// NewService wraps store; without options it logs nowhere and publishes nothing.
func NewService(store *Store, opts ...Option) *Service {
	s := &Service{
		store:  store,
		logger: zap.NewNop(),
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns the stored tasks in file order.
func (s *Service) List() ([]Task, error) {
	return s.store.List()
}

// Add stores description as typed; only blank input is rejected.
func (s *Service) Add(description string, priority string) (Task, error) {
	if strings.TrimSpace(description) == "" {
		return Task{}, ErrEmptyDescription
	}
	p, err := ParsePriority(priority)
	if err != nil {
		return Task{}, err
	}
	task := Task{Description: description, Priority: p}
	all, err := s.store.Add(task)
	if err != nil {
		return Task{}, fmt.Errorf("add task: %w", err)
	}
	s.logger.Info("task added", zap.String("description", description), zap.String("priority", string(p)), zap.Int("total", len(all)))
	s.publish(all)
	return task, nil
}

// Remove deletes every exact match and reports how many went.
func (s *Service) Remove(description string) (int, error) {
	removed, all, err := s.store.Remove(description)
	if err != nil {
		return 0, err
	}
	s.logger.Info("task removed", zap.String("description", description), zap.Int("removed", removed), zap.Int("total", len(all)))
	s.publish(all)
	return removed, nil
}

// Train fits a fresh classifier on every stored task.
func (s *Service) Train() (*ml.TextClassifier, []Task, error) {
	all, err := s.store.List()
	if err != nil {
		return nil, nil, err
	}
	if len(all) < 2 {
		return nil, all, ErrNotEnoughTasks
	}
	docs := make([]string, len(all))
	labels := make([]string, len(all))
	for i, t := range all {
		docs[i] = t.Description
		labels[i] = string(t.Priority)
	}
	model := ml.NewTextClassifier()
	if err := model.Fit(docs, labels); err != nil {
		return nil, all, fmt.Errorf("train priority model: %w", err)
	}
	return model, all, nil
}

// Predict trains on the stored tasks and labels description.
func (s *Service) Predict(description string) (Priority, error) {
	if strings.TrimSpace(description) == "" {
		return "", ErrEmptyDescription
	}
	model, _, err := s.Train()
	if err != nil {
		return "", err
	}
	label, err := model.Predict(description)
	if err != nil {
		return "", err
	}
	return Priority(label), nil
}

// Suggest picks a stored task uniformly at random and predicts its priority.
func (s *Service) Suggest() (*Suggestion, error) {
	model, all, err := s.Train()
	if err != nil {
		return nil, err
	}
	s.rndMu.Lock()
	pick := all[s.rnd.Intn(len(all))]
	s.rndMu.Unlock()

	label, err := model.Predict(pick.Description)
	if err != nil {
		return nil, err
	}
	return &Suggestion{Task: pick, Predicted: Priority(label)}, nil
}

// IsInsufficientData reports errors caused by too little training data.
func IsInsufficientData(err error) bool {
	return errors.Is(err, ErrNotEnoughTasks) || errors.Is(err, ml.ErrEmptyVocabulary)
}

func (s *Service) publish(all []Task) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(EventTasksChanged, all); err != nil {
		s.logger.Warn("publish task change failed", zap.Error(err))
	}
}

// Watch publishes the task list whenever the file is changed by something
// other than this service. It blocks until ctx is done.
func (s *Service) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	// the directory is watched because saves replace the file by rename
	if err := watcher.Add(filepath.Dir(s.store.Path())); err != nil {
		return err
	}
	s.logger.Info("watching task file", zap.String("path", s.store.Path()))

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != s.store.Path() {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			s.reloadIfChanged()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn("task file watcher error", zap.Error(err))
		}
	}
}

func (s *Service) reloadIfChanged() {
	changed, err := s.store.ChangedExternally()
	if err != nil {
		s.logger.Debug("task file not readable", zap.Error(err))
		return
	}
	if !changed {
		return
	}
	all, err := s.store.List()
	if err != nil {
		s.logger.Warn("reload task file failed", zap.Error(err))
		return
	}
	s.logger.Info("task file changed on disk", zap.Int("total", len(all)))
	s.publish(all)
}
