package postgres_test

import (
	"context"
	"fmt"
	"os"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/storysprout/pkg/storage"
	"github.com/papercomputeco/storysprout/pkg/storage/postgres"
	"github.com/papercomputeco/storysprout/pkg/storage/storagetest"
)

// connStr returns the PostgreSQL connection string from environment or skips the test.
func connStr() string {
	dsn := os.Getenv("STORYSPROUT_TEST_POSTGRES_DSN")
	if dsn == "" {
		Skip("STORYSPROUT_TEST_POSTGRES_DSN not set, skipping PostgreSQL tests")
	}
	return dsn
}

var _ = Describe("Driver", func() {
	storagetest.DriverSpecs(func() storage.Driver {
		driver, err := postgres.NewDriver(context.Background(), connStr())
		Expect(err).NotTo(HaveOccurred())

		// Clean all stories before each test for isolation; beats cascade.
		_, err = driver.DB().ExecContext(context.Background(), "DELETE FROM stories")
		Expect(err).NotTo(HaveOccurred())
		return driver
	})

	Describe("NewDriver", func() {
		It("returns an error for invalid connection string", func() {
			connStr()
			_, err := postgres.NewDriver(context.Background(), "host=invalid port=9999 user=bad dbname=bad sslmode=disable connect_timeout=1")
			Expect(err).To(HaveOccurred())
			fmt.Fprintf(GinkgoWriter, "expected error: %v\n", err)
		})
	})
})
