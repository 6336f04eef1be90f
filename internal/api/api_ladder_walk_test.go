package api

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"project-status-tracker/internal/cache"
	"project-status-tracker/internal/domain"
	"project-status-tracker/internal/storage"
	"project-status-tracker/internal/workflow"
)

var _ = Describe("Ladder walk over HTTP", Ordered, func() {
	var (
		srv     *httptest.Server
		catalog *domain.Catalog
	)

	BeforeAll(func() {
		catalog = domain.LadderCatalog()
		engine, err := workflow.New(workflow.Options{
			Catalog: catalog,
			Store:   storage.NewMemoryStore(catalog.Initial().ID),
			Blobs:   storage.NewMemoryBlobs(),
			Cache:   cache.NewMemory(0),
			Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		})
		Expect(err).ToNot(HaveOccurred())

		srv = httptest.NewServer(NewRouter(NewHandler(Options{AllowedUploadBytes: 1 << 20}, engine, nil)))
		DeferCleanup(srv.Close)

		By("waiting for the API to report ready")
		Eventually(func() int {
			resp, err := http.Get(srv.URL + "/readyz")
			if err != nil {
				return 0
			}
			defer resp.Body.Close()
			return resp.StatusCode
		}).Should(Equal(http.StatusOK))
	})

	getView := func(projectID string) projectResponse {
		resp, err := http.Get(srv.URL + "/v1/projects/" + projectID)
		Expect(err).ToNot(HaveOccurred())
		defer resp.Body.Close()
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
		var out projectResponse
		Expect(json.NewDecoder(resp.Body).Decode(&out)).To(Succeed())
		return out
	}

	postDocument := func(projectID string, dt domain.DocumentType) workflow.UploadResult {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		Expect(mw.WriteField("document_type", string(dt))).To(Succeed())
		part, err := mw.CreateFormFile("file", string(dt)+".pdf")
		Expect(err).ToNot(HaveOccurred())
		_, err = part.Write([]byte("%PDF-1.4 " + string(dt)))
		Expect(err).ToNot(HaveOccurred())
		Expect(mw.Close()).To(Succeed())

		resp, err := http.Post(srv.URL+"/v1/projects/"+projectID+"/documents", mw.FormDataContentType(), &buf)
		Expect(err).ToNot(HaveOccurred())
		defer resp.Body.Close()
		Expect(resp.StatusCode).To(Equal(http.StatusCreated))
		var out workflow.UploadResult
		Expect(json.NewDecoder(resp.Body).Decode(&out)).To(Succeed())
		return out
	}

	It("starts a new project at draft", func() {
		view := getView("walk")
		Expect(view.Project.StatusID).To(Equal(domain.StatusDraft))
		Expect(view.View.Order).To(Equal(1))
		Expect(view.View.IsTerminal).To(BeFalse())
	})

	It("climbs one status per document in catalog order", func() {
		statuses := catalog.Statuses()
		for i, st := range statuses {
			By("uploading " + string(st.RequiredDocumentType))
			res := postDocument("walk", st.RequiredDocumentType)
			if i+1 < len(statuses) {
				Expect(res.Advanced).To(BeTrue())
				Expect(res.StatusID).To(Equal(statuses[i+1].ID))
			} else {
				Expect(res.Advanced).To(BeFalse())
				Expect(res.StatusID).To(Equal(domain.StatusCompleteProject))
			}
		}
	})

	It("shows every document as completed once terminal", func() {
		view := getView("walk")
		Expect(view.View.IsTerminal).To(BeTrue())
		Expect(view.View.CompletedDocuments).To(Equal(view.View.TotalDocuments))
		Expect(view.View.NextDocument).To(BeNil())
	})

	It("keeps the terminal status when an earlier document is uploaded again", func() {
		res := postDocument("walk", domain.DocBidding)
		Expect(res.Advanced).To(BeFalse())
		Expect(res.StatusID).To(Equal(domain.StatusCompleteProject))
	})

	It("records one transition per step", func() {
		resp, err := http.Get(srv.URL + "/v1/projects/walk/history")
		Expect(err).ToNot(HaveOccurred())
		defer resp.Body.Close()
		var out struct {
			Items []domain.Transition `json:"items"`
		}
		Expect(json.NewDecoder(resp.Body).Decode(&out)).To(Succeed())
		Expect(out.Items).To(HaveLen(len(catalog.Statuses()) - 1))
		Expect(out.Items[0].From).To(Equal(domain.StatusDraft))
		Expect(out.Items[0].Trigger).To(Equal(domain.TriggerDocumentUpload))
	})
})
