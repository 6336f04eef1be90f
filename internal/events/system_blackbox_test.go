//go:build system

package events_test

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.temporal.io/sdk/client"

	"project-status-tracker/internal/domain"
	"project-status-tracker/internal/storage"
	appTemporal "project-status-tracker/internal/temporal"
)

var _ = Describe("Bucket upload to status change", Ordered, func() {
	var cfg systemTestConfig

	BeforeAll(func() {
		if os.Getenv("RUN_BLACKBOX_SYSTEM_TEST") != "1" {
			Skip("set RUN_BLACKBOX_SYSTEM_TEST=1 to run the blackbox system test")
		}
		cfg = loadSystemTestConfig()

		repoRoot, err := findRepoRoot()
		Expect(err).ToNot(HaveOccurred())

		By("verifying required docker compose services are running")
		Expect(requireComposeServicesRunning(repoRoot, cfg.RequiredComposeServices)).To(Succeed())

		By("failing fast if infrastructure is unreachable")
		Expect(waitForPostgres(cfg.PostgresDSN, cfg.PreflightTimeout)).To(Succeed())
		Expect(waitForHTTPStatus(cfg.APIBaseURL+"/readyz", 200, cfg.PreflightTimeout)).To(Succeed())
		Expect(waitForWorkerPoller(cfg.TemporalAddress, cfg.TemporalNamespace, cfg.TemporalTaskQueue, cfg.WorkerPollerTimeout)).To(Succeed())
		Expect(storage.MigrateFromDSN(context.Background(), cfg.PostgresDSN, filepath.Join(repoRoot, "db", "migrations"))).To(Succeed())
	})

	It("advances the project after an object lands in the bucket", func() {
		ctx := context.Background()
		projectID := "sys-" + uuid.NewString()[:8]
		uploadID := uuid.NewString()
		key := storage.DocumentObjectKey(projectID, domain.DocBidding, uploadID, "bid.pdf")

		By("writing the object straight to the bucket")
		Expect(putObject(ctx, cfg, key, []byte("%PDF-1.4 system test"))).To(Succeed())

		By("polling the API until the status moves")
		Eventually(func() domain.StatusID {
			p, err := getProject(cfg.APIBaseURL, projectID)
			if err != nil {
				return ""
			}
			return p.Project.StatusID
		}, cfg.WorkflowCompletionTimeout, cfg.WorkflowPollInterval).Should(Equal(domain.StatusBidding))

		By("checking the workflow ran both activities once")
		temporalClient, err := client.Dial(client.Options{HostPort: cfg.TemporalAddress, Namespace: cfg.TemporalNamespace})
		Expect(err).ToNot(HaveOccurred())
		defer temporalClient.Close()

		order, err := activityOrder(ctx, temporalClient, appTemporal.WorkflowID(cfg.WorkflowIDPrefix, projectID, uploadID))
		Expect(err).ToNot(HaveOccurred())
		Expect(order).To(Equal([]string{"RecordDocumentActivity", "AdvanceStatusActivity"}))

		By("verifying the document and transition rows in Postgres")
		db, err := sql.Open("postgres", cfg.PostgresDSN)
		Expect(err).ToNot(HaveOccurred())
		defer db.Close()

		keys, err := fetchStringRows(db, `SELECT object_key FROM project_documents WHERE project_id = $1`, projectID)
		Expect(err).ToNot(HaveOccurred())
		Expect(keys).To(Equal([]string{key}))

		targets, err := fetchStringRows(db, `SELECT to_status FROM status_transitions WHERE project_id = $1 ORDER BY created_at`, projectID)
		Expect(err).ToNot(HaveOccurred())
		Expect(targets).To(Equal([]string{string(domain.StatusBidding)}))
	})
})
