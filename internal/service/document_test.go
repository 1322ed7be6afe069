package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"docvault/internal/logging"
	"docvault/internal/model"
	"docvault/internal/query"
	"docvault/internal/repository"
	"docvault/internal/repository/memory"
	repoMocks "docvault/internal/repository/mocks"
	"docvault/internal/storage"
	storeMocks "docvault/internal/storage/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestDocumentService_Upload(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		in         UploadInput
		setupMocks func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockDocumentRepository) io.Reader
		wantErr    error
		wantErrMsg string
		checkDoc   func(t *testing.T, doc *model.Document)
	}{
		{
			name: "happy path",
			in: UploadInput{
				OriginalName: "test.txt",
				ContentType:  "text/plain",
				Size:         11,
				Title:        "Test",
				Tags:         []string{" a ", "b", "a"},
			},
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockDocumentRepository) io.Reader {
				r := strings.NewReader("hello world")
				mStore.On("Put", mock.Anything, "test.txt", r, storage.PutObjectOptions{
					Size:        11,
					ContentType: "text/plain",
					Metadata:    map[string]string{"original-filename": "test.txt"},
				}).Return(storage.ObjectInfo{
					Key:         "1700000000000-abcd1234-test.txt",
					Size:        11,
					ContentType: "text/plain",
				}, nil)

				mRepo.On("Create", mock.Anything, mock.MatchedBy(func(doc *model.Document) bool {
					return doc.StoredName == "1700000000000-abcd1234-test.txt" &&
						doc.OriginalName == "test.txt" &&
						doc.UploadedBy == "alice" &&
						doc.Size == 11
				})).Return(&model.Document{ID: "gen-id", Title: "Test", Tags: []string{"a", "b"}}, nil)

				return r
			},
			checkDoc: func(t *testing.T, doc *model.Document) {
				assert.Equal(t, "gen-id", doc.ID)
			},
		},
		{
			name: "title defaults to file name",
			in:   UploadInput{OriginalName: "scan.pdf", Size: 3},
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockDocumentRepository) io.Reader {
				r := strings.NewReader("pdf")
				mStore.On("Put", mock.Anything, "scan.pdf", r, mock.Anything).
					Return(storage.ObjectInfo{Key: "k", Size: 3}, nil)
				mRepo.On("Create", mock.Anything, mock.MatchedBy(func(doc *model.Document) bool {
					return doc.Title == "scan.pdf"
				})).Return(&model.Document{ID: "id"}, nil)
				return r
			},
		},
		{
			name: "validation error - nil reader",
			in:   UploadInput{OriginalName: "test.txt"},
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockDocumentRepository) io.Reader {
				return nil
			},
			wantErr: ErrReaderNil,
		},
		{
			name: "storage error",
			in:   UploadInput{OriginalName: "test.txt", Size: 5},
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockDocumentRepository) io.Reader {
				r := strings.NewReader("hello")
				mStore.On("Put", mock.Anything, "test.txt", r, mock.Anything).
					Return(storage.ObjectInfo{}, errors.New("storage fail"))
				return r
			},
			wantErrMsg: "upload to storage: storage fail",
		},
		{
			name: "repository error with successful rollback",
			in:   UploadInput{OriginalName: "test.txt", Size: 5},
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockDocumentRepository) io.Reader {
				r := strings.NewReader("hello")
				mStore.On("Put", mock.Anything, "test.txt", r, mock.Anything).
					Return(func(ctx context.Context, name string, r io.Reader, opt storage.PutObjectOptions) storage.ObjectInfo {
						return storage.ObjectInfo{Key: "key-" + name}
					}, nil)
				mRepo.On("Create", mock.Anything, mock.Anything).
					Return(nil, errors.New("insert fail"))
				mStore.On("Delete", mock.Anything, "key-test.txt").Return(nil)
				return r
			},
			wantErrMsg: "save record failed: insert fail",
		},
		{
			name: "repository error with failed rollback",
			in:   UploadInput{OriginalName: "test.txt", Size: 5},
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockDocumentRepository) io.Reader {
				r := strings.NewReader("hello")
				mStore.On("Put", mock.Anything, "test.txt", r, mock.Anything).
					Return(storage.ObjectInfo{Key: "k"}, nil)
				mRepo.On("Create", mock.Anything, mock.Anything).
					Return(nil, errors.New("insert fail"))
				mStore.On("Delete", mock.Anything, "k").Return(errors.New("delete fail"))
				return r
			},
			wantErrMsg: "rollback delete failed: delete fail",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mStore := new(storeMocks.MockStorage)
			mRepo := new(repoMocks.MockDocumentRepository)
			svc := NewDocumentService(mStore, mRepo, WithActor("alice"))

			r := tt.setupMocks(mStore, mRepo)

			doc, err := svc.Upload(ctx, r, tt.in)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else if tt.wantErrMsg != "" {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErrMsg)
			} else {
				assert.NoError(t, err)
				require.NotNil(t, doc)
				if tt.checkDoc != nil {
					tt.checkDoc(t, doc)
				}
			}

			mStore.AssertExpectations(t)
			mRepo.AssertExpectations(t)
		})
	}
}

func TestDocumentService_Get(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		id         string
		setupMocks func(mRepo *repoMocks.MockDocumentRepository)
		wantErr    error
	}{
		{
			name: "happy path",
			id:   "valid-id",
			setupMocks: func(mRepo *repoMocks.MockDocumentRepository) {
				mRepo.On("FindByID", ctx, "valid-id").Return(&model.Document{ID: "valid-id"}, nil)
			},
		},
		{
			name:       "validation - empty id",
			id:         "",
			setupMocks: func(mRepo *repoMocks.MockDocumentRepository) {},
			wantErr:    ErrIDRequired,
		},
		{
			name: "not found - mapping repository.ErrNotFound",
			id:   "missing-id",
			setupMocks: func(mRepo *repoMocks.MockDocumentRepository) {
				mRepo.On("FindByID", ctx, "missing-id").Return(nil, repository.ErrNotFound)
			},
			wantErr: ErrNotFound,
		},
		{
			name: "generic repository error",
			id:   "error-id",
			setupMocks: func(mRepo *repoMocks.MockDocumentRepository) {
				mRepo.On("FindByID", ctx, "error-id").Return(nil, errors.New("boom"))
			},
			wantErr: errors.New("boom"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mRepo := new(repoMocks.MockDocumentRepository)
			svc := NewDocumentService(nil, mRepo)

			tt.setupMocks(mRepo)

			doc, err := svc.Get(ctx, tt.id)

			if tt.wantErr != nil {
				if errors.Is(tt.wantErr, ErrIDRequired) || errors.Is(tt.wantErr, ErrNotFound) {
					assert.ErrorIs(t, err, tt.wantErr)
				} else {
					assert.Error(t, err)
				}
				assert.Nil(t, doc)
			} else {
				assert.NoError(t, err)
				require.NotNil(t, doc)
				assert.Equal(t, tt.id, doc.ID)
			}
			mRepo.AssertExpectations(t)
		})
	}
}

func TestDocumentService_Open(t *testing.T) {
	ctx := context.Background()

	t.Run("happy path", func(t *testing.T) {
		mStore := new(storeMocks.MockStorage)
		mRepo := new(repoMocks.MockDocumentRepository)
		mRepo.On("FindByID", mock.Anything, "id").Return(&model.Document{ID: "id", StoredName: "blob"}, nil)
		mStore.On("Get", mock.Anything, "blob").Return(io.NopCloser(strings.NewReader("data")), storage.ObjectInfo{Size: 4}, nil)

		rc, doc, err := NewDocumentService(mStore, mRepo).Open(ctx, "id")
		require.NoError(t, err)
		defer rc.Close()
		b, _ := io.ReadAll(rc)
		assert.Equal(t, "data", string(b))
		assert.Equal(t, "id", doc.ID)
	})

	t.Run("document missing", func(t *testing.T) {
		mStore := new(storeMocks.MockStorage)
		mRepo := new(repoMocks.MockDocumentRepository)
		mRepo.On("FindByID", mock.Anything, "id").Return(nil, repository.ErrNotFound)

		_, _, err := NewDocumentService(mStore, mRepo).Open(ctx, "id")
		assert.ErrorIs(t, err, ErrNotFound)
		mStore.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
	})

	t.Run("blob missing is not a not-found", func(t *testing.T) {
		mStore := new(storeMocks.MockStorage)
		mRepo := new(repoMocks.MockDocumentRepository)
		mRepo.On("FindByID", mock.Anything, "id").Return(&model.Document{ID: "id", StoredName: "blob"}, nil)
		mStore.On("Get", mock.Anything, "blob").Return(nil, storage.ObjectInfo{}, storage.ErrObjectNotFound)

		_, _, err := NewDocumentService(mStore, mRepo).Open(ctx, "id")
		assert.Error(t, err)
		assert.NotErrorIs(t, err, ErrNotFound)
		assert.ErrorIs(t, err, storage.ErrObjectNotFound)
	})
}

func TestDocumentService_Update(t *testing.T) {
	ctx := context.Background()
	title := "New"
	upd := model.DocumentUpdate{Title: &title}

	mRepo := new(repoMocks.MockDocumentRepository)
	mRepo.On("Update", ctx, "id", upd, "bob").Return(&model.Document{ID: "id", Title: "New", Version: 2}, nil)
	mRepo.On("Update", ctx, "missing", upd, "bob").Return(nil, repository.ErrNotFound)
	svc := NewDocumentService(nil, mRepo, WithActor("bob"))

	doc, err := svc.Update(ctx, "id", upd)
	require.NoError(t, err)
	assert.Equal(t, 2, doc.Version)

	_, err = svc.Update(ctx, "missing", upd)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Update(ctx, "", upd)
	assert.ErrorIs(t, err, ErrIDRequired)

	mRepo.AssertExpectations(t)
}

func TestDocumentService_SetStatus(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		id         string
		status     model.Status
		setupMocks func(mRepo *repoMocks.MockDocumentRepository)
		wantErr    error
	}{
		{
			name:   "approve",
			id:     "id",
			status: model.StatusApproved,
			setupMocks: func(mRepo *repoMocks.MockDocumentRepository) {
				mRepo.On("SetStatus", ctx, "id", model.StatusApproved).
					Return(&model.Document{ID: "id", Status: model.StatusApproved}, nil)
			},
		},
		{
			name:       "pending is rejected before lookup",
			id:         "missing",
			status:     model.StatusPending,
			setupMocks: func(mRepo *repoMocks.MockDocumentRepository) {},
			wantErr:    ErrInvalidStatus,
		},
		{
			name:       "unknown value",
			id:         "id",
			status:     model.Status("archived"),
			setupMocks: func(mRepo *repoMocks.MockDocumentRepository) {},
			wantErr:    ErrInvalidStatus,
		},
		{
			name:   "not found",
			id:     "missing",
			status: model.StatusRejected,
			setupMocks: func(mRepo *repoMocks.MockDocumentRepository) {
				mRepo.On("SetStatus", ctx, "missing", model.StatusRejected).Return(nil, repository.ErrNotFound)
			},
			wantErr: ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mRepo := new(repoMocks.MockDocumentRepository)
			tt.setupMocks(mRepo)
			svc := NewDocumentService(nil, mRepo)

			doc, err := svc.SetStatus(ctx, tt.id, tt.status)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, doc)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.status, doc.Status)
			}
			mRepo.AssertExpectations(t)
		})
	}
}

func TestDocumentService_Delete(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		id         string
		setupMocks func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockDocumentRepository)
		wantErr    error
		wantLog    string
	}{
		{
			name: "happy path",
			id:   "valid-id",
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockDocumentRepository) {
				mRepo.On("Delete", mock.Anything, "valid-id").Return("stored-obj", nil)
				mStore.On("Delete", mock.Anything, "stored-obj").Return(nil)
			},
		},
		{
			name:       "validation - empty id",
			id:         "",
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockDocumentRepository) {},
			wantErr:    ErrIDRequired,
		},
		{
			name: "not found",
			id:   "missing-id",
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockDocumentRepository) {
				mRepo.On("Delete", mock.Anything, "missing-id").Return("", repository.ErrNotFound)
			},
			wantErr: ErrNotFound,
		},
		{
			name: "storage delete error is logged, not returned",
			id:   "storage-fail-id",
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockDocumentRepository) {
				mRepo.On("Delete", mock.Anything, "storage-fail-id").Return("stored-obj", nil)
				mStore.On("Delete", mock.Anything, "stored-obj").Return(errors.New("storage fail"))
			},
			wantLog: `"msg":"blob_delete_failed"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mStore := new(storeMocks.MockStorage)
			mRepo := new(repoMocks.MockDocumentRepository)
			var buf bytes.Buffer
			svc := NewDocumentService(mStore, mRepo, WithLogger(logging.New(&buf, time.UTC)))

			tt.setupMocks(mStore, mRepo)

			err := svc.Delete(ctx, tt.id)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			if tt.wantLog != "" {
				assert.Contains(t, buf.String(), tt.wantLog)
				assert.Contains(t, buf.String(), `"stored_name":"stored-obj"`)
			} else {
				assert.Empty(t, buf.String())
			}
			mStore.AssertExpectations(t)
			mRepo.AssertExpectations(t)
		})
	}
}

// End-to-end over the in-memory repository and the filesystem store.
func TestDocumentService_Lifecycle(t *testing.T) {
	ctx := context.Background()
	store, err := storage.NewFS(t.TempDir())
	require.NoError(t, err)
	repo := memory.NewDocumentMemory()
	svc := NewDocumentService(store, repo, WithActor("admin"))

	contract, err := svc.Upload(ctx, strings.NewReader("terms"), UploadInput{
		OriginalName: "contract.pdf",
		ContentType:  "application/pdf",
		Size:         5,
		Title:        "Supplier Contract",
		Category:     "Legal",
		Tags:         []string{"vendor"},
	})
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, contract.Status)
	assert.Equal(t, 1, contract.Version)
	require.Len(t, contract.History, 1)
	assert.Equal(t, model.SummaryInitialUpload, contract.History[0].ChangeSummary)

	_, err = svc.Upload(ctx, strings.NewReader("memo"), UploadInput{
		OriginalName: "memo.txt",
		Size:         4,
		Title:        "Weekly memo",
		Category:     "Internal",
	})
	require.NoError(t, err)

	t.Run("list filters", func(t *testing.T) {
		all, err := svc.List(ctx, query.Criteria{})
		require.NoError(t, err)
		assert.Len(t, all, 2)

		legal, err := svc.List(ctx, query.Criteria{Q: "VENDOR"})
		require.NoError(t, err)
		require.Len(t, legal, 1)
		assert.Equal(t, contract.ID, legal[0].ID)
	})

	t.Run("update then approve", func(t *testing.T) {
		desc := "Signed copy"
		doc, err := svc.Update(ctx, contract.ID, model.DocumentUpdate{Description: &desc})
		require.NoError(t, err)
		assert.Equal(t, 2, doc.Version)

		doc, err = svc.SetStatus(ctx, contract.ID, model.StatusApproved)
		require.NoError(t, err)
		assert.Equal(t, model.StatusApproved, doc.Status)
		assert.Equal(t, 2, doc.Version)
	})

	t.Run("stats and activities", func(t *testing.T) {
		st, err := svc.Stats(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, st.TotalDocuments)
		assert.Equal(t, 1, st.PendingApprovals)
		assert.Equal(t, int64(9), st.StorageUsedBytes)

		acts, err := svc.RecentActivities(ctx, 10)
		require.NoError(t, err)
		assert.Len(t, acts, 3)
	})

	t.Run("open and delete", func(t *testing.T) {
		rc, doc, err := svc.Open(ctx, contract.ID)
		require.NoError(t, err)
		b, _ := io.ReadAll(rc)
		rc.Close()
		assert.Equal(t, "terms", string(b))

		require.NoError(t, svc.Delete(ctx, contract.ID))
		_, _, err = store.Get(ctx, doc.StoredName)
		assert.ErrorIs(t, err, storage.ErrObjectNotFound)

		_, err = svc.Get(ctx, contract.ID)
		assert.ErrorIs(t, err, ErrNotFound)
		assert.ErrorIs(t, svc.Delete(ctx, contract.ID), ErrNotFound)
	})
}
