package server

import (
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"time"

	"trackvault/config"
	"trackvault/core/access"
	"trackvault/model"
	"trackvault/repository"
)

// fakeTrackRepo is an in-memory TrackRepository mirroring the MySQL
// filtering semantics.
type fakeTrackRepo struct {
	tracks  []*model.Track
	nextID  int64
	listErr error
}

func newFakeTrackRepo() *fakeTrackRepo {
	return &fakeTrackRepo{nextID: 1}
}

func (r *fakeTrackRepo) CreateTrack(track *model.Track) (int64, error) {
	track.ID = r.nextID
	r.nextID++
	if track.MimeType == "" {
		track.MimeType = "audio/mpeg"
	}
	if track.Tags == nil {
		track.Tags = model.TagList{}
	}
	// Spread creation times so ordering is deterministic.
	track.CreatedAt = time.Unix(1700000000+track.ID, 0)
	r.tracks = append(r.tracks, track)
	return track.ID, nil
}

func (r *fakeTrackRepo) GetTrackByID(id int64) (*model.Track, error) {
	for _, t := range r.tracks {
		if t.ID == id {
			return t, nil
		}
	}
	return nil, nil
}

func (r *fakeTrackRepo) ListTracks(filter model.TrackFilter) ([]*model.Track, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	out := make([]*model.Track, 0)
	for _, t := range r.tracks {
		if filter.Tag != "" && !t.Tags.Contains(filter.Tag) {
			continue
		}
		if filter.Search != "" && !strings.Contains(strings.ToLower(t.Title), strings.ToLower(filter.Search)) {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (r *fakeTrackRepo) DeleteTrack(id int64) error {
	for i, t := range r.tracks {
		if t.ID == id {
			r.tracks = append(r.tracks[:i], r.tracks[i+1:]...)
			return nil
		}
	}
	return repository.ErrTrackNotFound
}

// fakeSettingsRepo is an in-memory SettingsRepository with optional read
// failure injection (an unreadable settings store).
type fakeSettingsRepo struct {
	settings *model.Settings
	getErr   error
}

func (r *fakeSettingsRepo) GetSettings() (*model.Settings, error) {
	if r.getErr != nil {
		return nil, r.getErr
	}
	if r.settings == nil {
		return nil, nil
	}
	cp := *r.settings
	return &cp, nil
}

func (r *fakeSettingsRepo) UpsertSettings(update model.SettingsUpdate) (*model.Settings, error) {
	current := r.settings
	if current == nil {
		current = model.DefaultSettings()
	}
	if update.Username != nil {
		current.Username = *update.Username
	}
	if update.PasswordOverride != nil {
		current.PasswordOverride = *update.PasswordOverride
	}
	if update.APIEnabled != nil {
		current.APIEnabled = *update.APIEnabled
	}
	current.UpdatedAt = time.Now()
	r.settings = current
	cp := *current
	return &cp, nil
}

// fakeObjectStore records puts and removals and can simulate a failing
// removal.
type fakeObjectStore struct {
	objects   map[string][]byte
	removeErr error
	putErr    error
}

func newFakeObjectStore() *fakeObjectStore {
	return &fakeObjectStore{objects: map[string][]byte{}}
}

func (s *fakeObjectStore) Put(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) (string, error) {
	if s.putErr != nil {
		return "", s.putErr
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	s.objects[objectName] = data
	return s.PublicURL(objectName), nil
}

func (s *fakeObjectStore) PublicURL(objectName string) string {
	return "http://storage.test/music/" + objectName
}

func (s *fakeObjectStore) Remove(ctx context.Context, objectName string) error {
	if s.removeErr != nil {
		return s.removeErr
	}
	if _, ok := s.objects[objectName]; !ok {
		return errors.New("object not found")
	}
	delete(s.objects, objectName)
	return nil
}

// testEnv wires an APIHandler with fakes behind the real router.
type testEnv struct {
	handler      *APIHandler
	trackRepo    *fakeTrackRepo
	settingsRepo *fakeSettingsRepo
	store        *fakeObjectStore
}

func newTestEnv(staticSecret string) *testEnv {
	trackRepo := newFakeTrackRepo()
	settingsRepo := &fakeSettingsRepo{}
	store := newFakeObjectStore()
	resolver := access.NewResolver(settingsRepo, staticSecret)
	handler := NewAPIHandler(trackRepo, settingsRepo, store, nil, resolver, &config.Config{AdminPassword: staticSecret})
	return &testEnv{
		handler:      handler,
		trackRepo:    trackRepo,
		settingsRepo: settingsRepo,
		store:        store,
	}
}

func (e *testEnv) addTrack(title string, tags ...string) *model.Track {
	track := &model.Track{
		Title:    title,
		FileURL:  "http://storage.test/music/audio/" + strings.ToLower(title) + ".mp3",
		FileName: "audio/" + strings.ToLower(title) + ".mp3",
		Tags:     model.NormalizeTags(tags),
		FileSize: 1024,
		MimeType: "audio/mpeg",
	}
	e.trackRepo.CreateTrack(track)
	e.store.objects[track.FileName] = []byte("bytes")
	return track
}
