package lifecycle_test

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"kpihub/internal/app/lifecycle"
	"kpihub/internal/app/policy/indicatorpolicy"
	"kpihub/internal/domain/models"
)

// memStore is an in-memory IndicatorStore with the same compare-and-swap
// semantics as the Mongo store.
type memStore struct {
	mu   sync.Mutex
	docs map[primitive.ObjectID]*models.Indicator
}

func newMemStore() *memStore {
	return &memStore{docs: make(map[primitive.ObjectID]*models.Indicator)}
}

func cloneIndicator(in *models.Indicator) *models.Indicator {
	out := *in
	out.Evidence = append([]models.Evidence(nil), in.Evidence...)
	out.Notes = append([]models.Note(nil), in.Notes...)
	out.ScoreHistory = append([]models.ScoreEntry(nil), in.ScoreHistory...)
	out.EditHistory = append([]models.EditEntry(nil), in.EditHistory...)
	out.AssignedGroup = append([]primitive.ObjectID(nil), in.AssignedGroup...)
	if in.ReportData != nil {
		out.ReportData = make(map[string]string, len(in.ReportData))
		for k, v := range in.ReportData {
			out.ReportData[k] = v
		}
	}
	return &out
}

func (m *memStore) Insert(_ context.Context, ind *models.Indicator) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[ind.ID] = cloneIndicator(ind)
	return nil
}

func (m *memStore) GetByID(_ context.Context, id primitive.ObjectID) (*models.Indicator, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[id]
	if !ok {
		return nil, lifecycle.NotFoundf("indicator %s not found", id.Hex())
	}
	return cloneIndicator(doc), nil
}

func (m *memStore) Replace(_ context.Context, ind *models.Indicator) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[ind.ID]
	if !ok {
		return lifecycle.NotFoundf("indicator %s not found", ind.ID.Hex())
	}
	if doc.Revision != ind.Revision {
		return lifecycle.ErrStaleRevision
	}
	next := cloneIndicator(ind)
	next.Revision++
	m.docs[ind.ID] = next
	return nil
}

func (m *memStore) Delete(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.docs[id]; !ok {
		return lifecycle.NotFoundf("indicator %s not found", id.Hex())
	}
	delete(m.docs, id)
	return nil
}

func (m *memStore) DueForOverdue(_ context.Context, now time.Time) ([]primitive.ObjectID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []primitive.ObjectID
	for id, doc := range m.docs {
		if (doc.Status == models.StatusPending || doc.Status == models.StatusSubmitted) && now.After(doc.DueDate) {
			out = append(out, id)
		}
	}
	return out, nil
}

type fakeCategories struct {
	cats map[primitive.ObjectID]*models.Category
}

func (f *fakeCategories) GetByID(_ context.Context, id primitive.ObjectID) (*models.Category, error) {
	cat, ok := f.cats[id]
	if !ok {
		return nil, errors.New("no such category")
	}
	c := *cat
	return &c, nil
}

type fakeUsers struct {
	users map[primitive.ObjectID]*models.User
}

func (f *fakeUsers) GetByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, errors.New("no such user")
	}
	c := *u
	return &c, nil
}

type storedBlob struct {
	Folder, Name, ContentType string
	Size                      int
}

type fakeBlobs struct {
	mu       sync.Mutex
	stored   []storedBlob
	released []string
	failOn   string // file name substring that makes Store fail
	seq      int
}

func (f *fakeBlobs) Store(_ context.Context, data []byte, folder, name, contentType string) (lifecycle.StoredObject, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failOn != "" && contains(name, f.failOn) {
		return lifecycle.StoredObject{}, errors.New("storage backend unavailable")
	}
	f.seq++
	f.stored = append(f.stored, storedBlob{Folder: folder, Name: name, ContentType: contentType, Size: len(data)})
	return lifecycle.StoredObject{
		PublicID:     folder + "/" + name,
		ResourceKind: "raw",
		AccessTier:   "authenticated",
		Format:       "bin",
		SecureURL:    "https://blobs.test/" + folder + "/" + name,
	}, nil
}

func (f *fakeBlobs) Release(_ context.Context, publicID, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.released = append(f.released, publicID)
	return nil
}

func contains(s, sub string) bool {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return true
		}
	}
	return false
}

type sentNotification struct {
	UserID primitive.ObjectID
	Title  string
	Kind   string
}

type fakeNotify struct {
	mu         sync.Mutex
	sent       []sentNotification
	broadcasts []string // roles
}

func (f *fakeNotify) Notify(_ context.Context, userID primitive.ObjectID, title, _, kind string, _ map[string]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentNotification{UserID: userID, Title: title, Kind: kind})
	return nil
}

func (f *fakeNotify) EmitToRole(_ context.Context, role, _, _, _ string, _ map[string]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.broadcasts = append(f.broadcasts, role)
	return nil
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []lifecycle.Mail
}

func (f *fakeMailer) Send(_ context.Context, m lifecycle.Mail) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, m)
	return nil
}

type fakeAudit struct {
	mu     sync.Mutex
	events []lifecycle.AuditEvent
}

func (f *fakeAudit) Record(_ context.Context, e lifecycle.AuditEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, e)
}

// harness bundles the service and every fake collaborator.
type harness struct {
	svc    *lifecycle.Service
	store  *memStore
	cats   *fakeCategories
	users  *fakeUsers
	blobs  *fakeBlobs
	notify *fakeNotify
	mailer *fakeMailer
	audit  *fakeAudit

	// a ready-made three-level category chain
	mainCat, subCat, leafCat *models.Category
}

func newHarness() *harness {
	mainID := primitive.NewObjectID()
	subID := primitive.NewObjectID()
	leafID := primitive.NewObjectID()

	mainCat := &models.Category{ID: mainID, Name: "Research", Level: models.CategoryLevelMain}
	subCat := &models.Category{ID: subID, Name: "Publications", Level: models.CategoryLevelSub, ParentID: &mainID}
	leafCat := &models.Category{ID: leafID, Name: "Peer-reviewed article", Level: models.CategoryLevelIndicator, ParentID: &subID}

	h := &harness{
		store: newMemStore(),
		cats: &fakeCategories{cats: map[primitive.ObjectID]*models.Category{
			mainID: mainCat, subID: subCat, leafID: leafCat,
		}},
		users:   &fakeUsers{users: map[primitive.ObjectID]*models.User{}},
		blobs:   &fakeBlobs{},
		notify:  &fakeNotify{},
		mailer:  &fakeMailer{},
		audit:   &fakeAudit{},
		mainCat: mainCat,
		subCat:  subCat,
		leafCat: leafCat,
	}
	h.svc = lifecycle.New(h.store, h.cats, h.users, h.blobs, h.notify, h.mailer, h.audit, zap.NewNop())
	return h
}

func (h *harness) addUser(role string) lifecycle.Actor {
	id := primitive.NewObjectID()
	h.users.users[id] = &models.User{
		ID:       id,
		FullName: "Test " + role,
		Email:    role + "-" + id.Hex()[:6] + "@example.com",
		Role:     role,
	}
	return lifecycle.Actor{ID: id, Name: "Test " + role, Role: indicatorpolicy.ParseRole(role)}
}

func (h *harness) superadmin() lifecycle.Actor { return h.addUser("superadmin") }
func (h *harness) admin() lifecycle.Actor      { return h.addUser("admin") }
func (h *harness) member() lifecycle.Actor     { return h.addUser("member") }

// createFor creates an indicator assigned individually to the given member.
func (h *harness) createFor(t testingT, member lifecycle.Actor) *models.Indicator {
	t.Helper()
	sa := h.superadmin()
	ind, err := h.svc.Create(context.Background(), lifecycle.CreateSpec{
		CategoryID:  h.mainCat.ID,
		Level2ID:    h.subCat.ID,
		IndicatorID: h.leafCat.ID,
		AssignedTo:  &member.ID,
		StartDate:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		DueDate:     time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
	}, sa)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	return ind
}

func (h *harness) submit(t testingT, id primitive.ObjectID, member lifecycle.Actor, names ...string) *models.Indicator {
	t.Helper()
	files := make([]lifecycle.FileUpload, len(names))
	for i, n := range names {
		files[i] = lifecycle.FileUpload{Name: n, ContentType: "application/pdf", Data: []byte("evidence for " + n)}
	}
	ind, err := h.svc.SubmitEvidence(context.Background(), id, files, nil, member)
	if err != nil {
		t.Fatalf("SubmitEvidence failed: %v", err)
	}
	return ind
}

// testingT is the subset of *testing.T the helpers need.
type testingT interface {
	Helper()
	Fatalf(format string, args ...any)
}
