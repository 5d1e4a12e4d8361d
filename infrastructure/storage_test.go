package infrastructure

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-screener/domain"
)

func TestObjectKey(t *testing.T) {
	now := time.UnixMilli(1700000000000)

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain", in: "resume.pdf", want: "resume.pdf"},
		{name: "spaces", in: "Jane Doe CV.pdf", want: "Jane_Doe_CV.pdf"},
		{name: "traversal", in: "../../etc/passwd", want: "passwd"},
		{name: "windows path", in: `C:\Users\jane\cv.docx`, want: "cv.docx"},
		{name: "nothing usable", in: "...", want: "upload"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := objectKey(tt.in, now)
			assert.Regexp(t, `^1700000000000-[0-9a-f-]{8}-`+regexp.QuoteMeta(tt.want)+`$`, key)
		})
	}
}

func TestObjectKeySameNameSameInstant(t *testing.T) {
	now := time.UnixMilli(1700000000000)
	assert.NotEqual(t, objectKey("resume.pdf", now), objectKey("resume.pdf", now))
}

func TestLocalStorageConcurrentSameName(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir(), "")
	require.NoError(t, err)

	const uploads = 50
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		urls = make(map[string]string, uploads)
	)
	for i := 0; i < uploads; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			body := fmt.Sprintf("candidate %d", i)
			stored, err := store.Save(context.Background(), "resume.pdf", strings.NewReader(body), "application/pdf")
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			urls[stored.Key] = body
			mu.Unlock()
		}(i)
	}
	wg.Wait()

	require.Len(t, urls, uploads)
	for key, body := range urls {
		data, err := os.ReadFile(filepath.Join(store.Root, key))
		require.NoError(t, err)
		assert.Equal(t, body, string(data))
	}
}

func TestLocalStorageSave(t *testing.T) {
	root := filepath.Join(t.TempDir(), "uploads")
	store, err := NewLocalStorage(root, "http://localhost:8080/")
	require.NoError(t, err)

	stored, err := store.Save(context.Background(), "cv.txt", strings.NewReader("Go developer"), "text/plain")
	require.NoError(t, err)

	assert.True(t, strings.HasSuffix(stored.Key, "-cv.txt"), stored.Key)
	assert.Equal(t, "http://localhost:8080/uploads/"+stored.Key, stored.URL)

	data, err := os.ReadFile(filepath.Join(root, stored.Key))
	require.NoError(t, err)
	assert.Equal(t, "Go developer", string(data))
}

func TestNewFileStorageUnknownDriver(t *testing.T) {
	_, err := NewFileStorage(context.Background(), Config{StorageDriver: "ftp"})
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}
