package temporal

import (
	"context"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/converter"
	"go.temporal.io/sdk/testsuite"

	"project-status-tracker/internal/domain"
)

type activityTrace struct {
	mu sync.Mutex

	startedOrder   []string
	completedOrder []string

	recordIn   *RecordDocumentInput
	recordOut  *RecordDocumentOutput
	advanceIn  *AdvanceStatusInput
	advanceOut *AdvanceStatusOutput
}

func (t *activityTrace) recordStarted(name string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.startedOrder = append(t.startedOrder, name)
}

func (t *activityTrace) recordCompleted(name string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.completedOrder = append(t.completedOrder, name)
}

var _ = Describe("ProjectUploadWorkflow blackbox happy path", func() {
	It("records an uploaded object and moves the project one status up", func() {
		var suite testsuite.WorkflowTestSuite
		env := suite.NewTestWorkflowEnvironment()

		f := newEngineFixture(GinkgoT(), domain.LadderCatalog())
		acts := f.activities()
		trace := &activityTrace{}

		env.SetOnActivityStartedListener(func(info *activity.Info, _ context.Context, args converter.EncodedValues) {
			trace.recordStarted(info.ActivityType.Name)

			switch info.ActivityType.Name {
			case "RecordDocumentActivity":
				var in RecordDocumentInput
				_ = args.Get(&in)
				trace.mu.Lock()
				trace.recordIn = &in
				trace.mu.Unlock()
			case "AdvanceStatusActivity":
				var in AdvanceStatusInput
				_ = args.Get(&in)
				trace.mu.Lock()
				trace.advanceIn = &in
				trace.mu.Unlock()
			}
		})

		env.SetOnActivityCompletedListener(func(info *activity.Info, result converter.EncodedValue, _ error) {
			trace.recordCompleted(info.ActivityType.Name)

			switch info.ActivityType.Name {
			case "RecordDocumentActivity":
				var out RecordDocumentOutput
				_ = result.Get(&out)
				trace.mu.Lock()
				trace.recordOut = &out
				trace.mu.Unlock()
			case "AdvanceStatusActivity":
				var out AdvanceStatusOutput
				_ = result.Get(&out)
				trace.mu.Lock()
				trace.advanceOut = &out
				trace.mu.Unlock()
			}
		})

		env.RegisterWorkflow(ProjectUploadWorkflow)
		env.RegisterActivity(acts.RecordDocumentActivity)
		env.RegisterActivity(acts.AdvanceStatusActivity)

		By("seeding the project two statuses up")
		for _, dt := range []domain.DocumentType{domain.DocBidding, domain.DocVendorSelection} {
			_, err := f.engine.RecordUploadAndAdvance(context.Background(), "harbor", uploadFor(dt))
			Expect(err).ToNot(HaveOccurred())
		}

		input := WorkflowInput{
			ProjectID:    "harbor",
			UploadID:     "upload-7",
			DocumentType: domain.DocScreenerApproval,
			FileName:     "screener.pdf",
			ObjectKey:    "harbor/screener_approval_document/upload-7/screener.pdf",
			Size:         1024,
		}

		By("triggering the workflow execution the way a bucket event does")
		env.ExecuteWorkflow(ProjectUploadWorkflow, input)

		By("validating workflow completes successfully")
		Expect(env.IsWorkflowCompleted()).To(BeTrue())
		Expect(env.GetWorkflowError()).ToNot(HaveOccurred())

		var wfResult WorkflowResult
		Expect(env.GetWorkflowResult(&wfResult)).To(Succeed())
		Expect(wfResult.ProjectID).To(Equal("harbor"))
		Expect(wfResult.UploadID).To(Equal("upload-7"))
		Expect(wfResult.PreviousStatusID).To(Equal(domain.StatusVendorSelected))
		Expect(wfResult.StatusID).To(Equal(domain.StatusScreenerApproved))
		Expect(wfResult.Advanced).To(BeTrue())

		By("validating each activity input and output")
		Expect(trace.startedOrder).To(Equal([]string{"RecordDocumentActivity", "AdvanceStatusActivity"}))
		Expect(trace.completedOrder).To(Equal([]string{"RecordDocumentActivity", "AdvanceStatusActivity"}))

		Expect(trace.recordIn).ToNot(BeNil())
		Expect(trace.recordIn.ObjectKey).To(Equal(input.ObjectKey))
		Expect(trace.recordIn.DocumentType).To(Equal(domain.DocScreenerApproval))

		Expect(trace.recordOut).ToNot(BeNil())
		Expect(trace.recordOut.Document.ID).To(Equal("upload-7"))
		Expect(trace.recordOut.Document.ObjectKey).To(Equal(input.ObjectKey))
		Expect(trace.recordOut.Document.Size).To(BeEquivalentTo(1024))

		Expect(trace.advanceIn).ToNot(BeNil())
		Expect(trace.advanceIn.Document.ID).To(Equal("upload-7"))

		Expect(trace.advanceOut).ToNot(BeNil())
		Expect(trace.advanceOut.StatusID).To(Equal(domain.StatusScreenerApproved))

		By("validating persisted side effects")
		ctx := context.Background()
		types, err := f.mem.ListDocumentTypes(ctx, "harbor")
		Expect(err).ToNot(HaveOccurred())
		Expect(types).To(ConsistOf(domain.DocBidding, domain.DocVendorSelection, domain.DocScreenerApproval))

		history, err := f.mem.ListTransitions(ctx, "harbor")
		Expect(err).ToNot(HaveOccurred())
		Expect(history).To(HaveLen(3))
		Expect(history[2].DocumentID).To(Equal("upload-7"))
		Expect(history[2].Trigger).To(Equal(domain.TriggerDocumentUpload))
	})
})
