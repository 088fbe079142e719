package kvstore_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/wildwatch/internal/adapters/kvstore"
	. "github.com/smartystreets/goconvey/convey"
)

// contract runs the behaviour every backend must share.
func contract(t *testing.T, name string, open func() kvstore.Store) {
	t.Helper()
	Convey("Given a "+name+" store", t, func() {
		ctx := context.Background()
		s := open()
		Reset(func() { _ = s.Close() })
		key := "wildlife_detections_test"
		_ = s.Remove(ctx, key)

		Convey("When the key is absent", func() {
			_, err := s.Get(ctx, key)

			Convey("Then Get reports ErrNotFound", func() {
				So(errors.Is(err, kvstore.ErrNotFound), ShouldBeTrue)
			})
		})

		Convey("When a value is set and replaced", func() {
			So(s.Set(ctx, key, []byte(`[1]`)), ShouldBeNil)
			So(s.Set(ctx, key, []byte(`[2,1]`)), ShouldBeNil)

			Convey("Then Get returns the latest value", func() {
				v, err := s.Get(ctx, key)
				So(err, ShouldBeNil)
				So(string(v), ShouldEqual, `[2,1]`)
			})
		})

		Convey("When the key is removed twice", func() {
			So(s.Set(ctx, key, []byte(`[]`)), ShouldBeNil)
			So(s.Remove(ctx, key), ShouldBeNil)
			So(s.Remove(ctx, key), ShouldBeNil)

			Convey("Then it is gone", func() {
				_, err := s.Get(ctx, key)
				So(errors.Is(err, kvstore.ErrNotFound), ShouldBeTrue)
			})
		})

		Convey("When the key is empty", func() {
			So(errors.Is(s.Set(ctx, "", nil), kvstore.ErrEmptyKey), ShouldBeTrue)
			_, err := s.Get(ctx, "")
			So(errors.Is(err, kvstore.ErrEmptyKey), ShouldBeTrue)
		})
	})
}

func TestMemoryStore(t *testing.T) {
	contract(t, "memory", func() kvstore.Store { return kvstore.NewMemory() })
}

func TestFileStore(t *testing.T) {
	dir := t.TempDir()
	contract(t, "file", func() kvstore.Store {
		s, err := kvstore.NewFile(dir)
		if err != nil {
			t.Fatalf("open file store: %v", err)
		}
		return s
	})

	Convey("Given a file store", t, func() {
		s, err := kvstore.NewFile(dir)
		So(err, ShouldBeNil)

		Convey("When a key with separators is written", func() {
			So(s.Set(context.Background(), "a/b", []byte("x")), ShouldBeNil)

			Convey("Then it stays inside the directory", func() {
				_, statErr := os.Stat(filepath.Join(dir, "a%2Fb.json"))
				So(statErr, ShouldBeNil)
			})
		})
	})
}

func TestSQLiteStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kv.db")
	contract(t, "sqlite", func() kvstore.Store {
		s, err := kvstore.NewSQLite(context.Background(), path)
		if err != nil {
			t.Fatalf("open sqlite: %v", err)
		}
		return s
	})
}

func TestRedisStore(t *testing.T) {
	url := os.Getenv("WILDWATCH_TEST_REDIS_URL")
	if url == "" {
		t.Skip("WILDWATCH_TEST_REDIS_URL not set")
	}
	contract(t, "redis", func() kvstore.Store {
		s, err := kvstore.NewRedis(context.Background(), url)
		if err != nil {
			t.Fatalf("open redis: %v", err)
		}
		return s
	})
}

func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("WILDWATCH_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("WILDWATCH_TEST_POSTGRES_DSN not set")
	}
	contract(t, "postgres", func() kvstore.Store {
		s, err := kvstore.NewPostgres(context.Background(), dsn)
		if err != nil {
			t.Fatalf("open postgres: %v", err)
		}
		return s
	})
}

func TestOpen(t *testing.T) {
	Convey("Given driver settings", t, func() {
		ctx := context.Background()

		Convey("When the driver is empty or memory", func() {
			s, err := kvstore.Open(ctx, kvstore.Settings{})
			So(err, ShouldBeNil)
			So(s, ShouldHaveSameTypeAs, &kvstore.Memory{})
		})

		Convey("When the driver is sqlite", func() {
			s, err := kvstore.Open(ctx, kvstore.Settings{Driver: "SQLite", Path: filepath.Join(t.TempDir(), "w.db")})
			So(err, ShouldBeNil)
			So(s.Close(), ShouldBeNil)
		})

		Convey("When a network driver has no DSN", func() {
			_, err := kvstore.Open(ctx, kvstore.Settings{Driver: "redis"})
			So(errors.Is(err, kvstore.ErrMissingDSN), ShouldBeTrue)
			_, err = kvstore.Open(ctx, kvstore.Settings{Driver: "postgres"})
			So(errors.Is(err, kvstore.ErrMissingDSN), ShouldBeTrue)
		})

		Convey("When the driver is unknown", func() {
			_, err := kvstore.Open(ctx, kvstore.Settings{Driver: "etcd"})
			So(errors.Is(err, kvstore.ErrUnknownDriver), ShouldBeTrue)
		})
	})
}
