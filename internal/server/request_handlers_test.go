package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"devicehub/internal/config"
	"devicehub/internal/database"
	"devicehub/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupHandlerTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate sqlite: %v", err)
	}

	return db
}

func newTestServer(t *testing.T) (*Server, *gorm.DB) {
	t.Helper()
	db := setupHandlerTestDB(t)
	cfg := &config.Config{JWTSecret: "test-secret", Port: "0", Env: "test"}
	s, err := NewServerWithDeps(cfg, db, nil)
	if err != nil {
		t.Fatalf("NewServerWithDeps: %v", err)
	}
	return s, db
}

// newAppAs builds a fiber app that authenticates every request as the given user.
func newAppAs(userID uint) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("userID", userID)
		return c.Next()
	})
	return app
}

func createTestUser(t *testing.T, db *gorm.DB, username string, status models.VerificationStatus, isAdmin bool) models.User {
	t.Helper()
	user := models.User{
		Username:           username,
		Email:              username + "@example.com",
		Password:           "pw",
		IsAdmin:            isAdmin,
		VerificationStatus: status,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
	return user
}

func createTestDevice(t *testing.T, db *gorm.DB, ownerID uint, name string, status models.DeviceStatus, active bool) models.Device {
	t.Helper()
	device := models.Device{
		Name:     name,
		Category: "laptop",
		Status:   status,
		IsActive: active,
		OwnerID:  ownerID,
	}
	if err := db.Create(&device).Error; err != nil {
		t.Fatalf("create device %s: %v", name, err)
	}
	return device
}

func postJSON(t *testing.T, app *fiber.App, path string, payload any) *http.Response {
	t.Helper()
	var body []byte
	if payload != nil {
		var err error
		body, err = json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	return resp
}

func decodeError(t *testing.T, resp *http.Response) models.ErrorResponse {
	t.Helper()
	defer func() { _ = resp.Body.Close() }()
	var errResp models.ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&errResp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	return errResp
}

func TestCreateDeviceRequestFlow(t *testing.T) {
	t.Parallel()

	s, db := newTestServer(t)
	donor := createTestUser(t, db, "donor", models.VerificationStatusUnverified, false)
	requester := createTestUser(t, db, "requester", models.VerificationStatusVerified, false)
	device := createTestDevice(t, db, donor.ID, "ThinkPad T480", models.DeviceStatusApproved, true)

	app := newAppAs(requester.ID)
	app.Post("/devices/:id/requests", s.CreateDeviceRequest)

	path := fmt.Sprintf("/devices/%d/requests", device.ID)

	resp := postJSON(t, app, path, fiber.Map{"message": "need it for school"})
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}

	var created models.DeviceRequest
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if created.Status != models.RequestStatusPending {
		t.Fatalf("expected pending, got %s", created.Status)
	}

	// Second request for the same device while the first is open.
	resp2 := postJSON(t, app, path, fiber.Map{"message": "still need it"})
	if resp2.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp2.StatusCode)
	}
	errResp := decodeError(t, resp2)
	if errResp.Error != models.ReasonDuplicateRequest {
		t.Fatalf("expected duplicate reason, got %q", errResp.Error)
	}
}

func TestCreateDeviceRequestUnverified(t *testing.T) {
	t.Parallel()

	s, db := newTestServer(t)
	donor := createTestUser(t, db, "donor", models.VerificationStatusUnverified, false)
	requester := createTestUser(t, db, "unverified", models.VerificationStatusUnverified, false)
	device := createTestDevice(t, db, donor.ID, "iPad", models.DeviceStatusApproved, true)

	app := newAppAs(requester.ID)
	app.Post("/devices/:id/requests", s.CreateDeviceRequest)

	resp := postJSON(t, app, fmt.Sprintf("/devices/%d/requests", device.ID), fiber.Map{"message": "please"})
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}
	errResp := decodeError(t, resp)
	if errResp.Error != models.ReasonVerificationRequired {
		t.Fatalf("expected %q, got %q", models.ReasonVerificationRequired, errResp.Error)
	}
}

func TestCreateDeviceRequestDeviceNotAvailable(t *testing.T) {
	t.Parallel()

	s, db := newTestServer(t)
	donor := createTestUser(t, db, "donor", models.VerificationStatusUnverified, false)
	requester := createTestUser(t, db, "requester", models.VerificationStatusVerified, false)
	device := createTestDevice(t, db, donor.ID, "Old Router", models.DeviceStatusPending, true)

	app := newAppAs(requester.ID)
	app.Post("/devices/:id/requests", s.CreateDeviceRequest)

	resp := postJSON(t, app, fmt.Sprintf("/devices/%d/requests", device.ID), fiber.Map{"message": "please"})
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}
	errResp := decodeError(t, resp)
	if errResp.Error != models.ReasonDeviceNotAvailable {
		t.Fatalf("expected %q, got %q", models.ReasonDeviceNotAvailable, errResp.Error)
	}
}

// Exactly three open requests are allowed; the fourth fails with the cap
// reason, and cancelling one opens the slot again.
func TestCreateDeviceRequestCapBoundary(t *testing.T) {
	t.Parallel()

	s, db := newTestServer(t)
	donor := createTestUser(t, db, "donor", models.VerificationStatusUnverified, false)
	requester := createTestUser(t, db, "requester", models.VerificationStatusVerified, false)

	devices := make([]models.Device, 4)
	for i := range devices {
		devices[i] = createTestDevice(t, db, donor.ID,
			fmt.Sprintf("Device %d", i+1), models.DeviceStatusApproved, true)
	}

	app := newAppAs(requester.ID)
	app.Post("/devices/:id/requests", s.CreateDeviceRequest)
	app.Delete("/requests/:id", s.CancelRequest)

	var thirdRequest models.DeviceRequest
	for i := 0; i < 3; i++ {
		resp := postJSON(t, app, fmt.Sprintf("/devices/%d/requests", devices[i].ID), fiber.Map{"message": "need it"})
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("request %d: expected 201, got %d", i+1, resp.StatusCode)
		}
		if i == 2 {
			if err := json.NewDecoder(resp.Body).Decode(&thirdRequest); err != nil {
				t.Fatalf("decode third request: %v", err)
			}
		}
		_ = resp.Body.Close()
	}

	// Fourth request exceeds the cap.
	resp := postJSON(t, app, fmt.Sprintf("/devices/%d/requests", devices[3].ID), fiber.Map{"message": "one more"})
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}
	errResp := decodeError(t, resp)
	if errResp.Error != models.ReasonMaxActiveRequests {
		t.Fatalf("expected cap reason, got %q", errResp.Error)
	}

	// Cancelling the third frees a slot.
	cancelReq := httptest.NewRequest(http.MethodDelete, fmt.Sprintf("/requests/%d", thirdRequest.ID), nil)
	cancelResp, err := app.Test(cancelReq)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	_ = cancelResp.Body.Close()
	if cancelResp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 cancelling, got %d", cancelResp.StatusCode)
	}

	retry := postJSON(t, app, fmt.Sprintf("/devices/%d/requests", devices[3].ID), fiber.Map{"message": "one more"})
	_ = retry.Body.Close()
	if retry.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201 after freeing a slot, got %d", retry.StatusCode)
	}
}

func TestRequestLifecycleTransitions(t *testing.T) {
	t.Parallel()

	s, db := newTestServer(t)
	donor := createTestUser(t, db, "donor", models.VerificationStatusUnverified, false)
	requester := createTestUser(t, db, "requester", models.VerificationStatusVerified, false)
	admin := createTestUser(t, db, "admin", models.VerificationStatusVerified, true)
	device := createTestDevice(t, db, donor.ID, "MacBook Air", models.DeviceStatusApproved, true)

	request := models.DeviceRequest{
		DeviceID:    device.ID,
		RequesterID: requester.ID,
		Message:     "need it",
		Status:      models.RequestStatusPending,
	}
	if err := db.Create(&request).Error; err != nil {
		t.Fatalf("create request: %v", err)
	}

	app := newAppAs(admin.ID)
	app.Post("/admin/requests/:id/approve", s.ApproveRequest)
	app.Post("/admin/requests/:id/complete", s.CompleteRequest)

	approvePath := fmt.Sprintf("/admin/requests/%d/approve", request.ID)
	completePath := fmt.Sprintf("/admin/requests/%d/complete", request.ID)

	resp := postJSON(t, app, approvePath, fiber.Map{"admin_notes": "verified pickup"})
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var approved models.DeviceRequest
	if err := json.NewDecoder(resp.Body).Decode(&approved); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if approved.Status != models.RequestStatusApproved {
		t.Fatalf("expected approved, got %s", approved.Status)
	}
	if approved.ReviewedByID == nil || *approved.ReviewedByID != admin.ID {
		t.Fatalf("expected reviewer %d", admin.ID)
	}

	// Approving twice is not a valid transition.
	again := postJSON(t, app, approvePath, nil)
	_ = again.Body.Close()
	if again.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409 re-approving, got %d", again.StatusCode)
	}

	// Complete the approved request; the device is retired with it.
	completeResp := postJSON(t, app, completePath, nil)
	_ = completeResp.Body.Close()
	if completeResp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 completing, got %d", completeResp.StatusCode)
	}

	var reloadedDevice models.Device
	if err := db.First(&reloadedDevice, device.ID).Error; err != nil {
		t.Fatalf("reload device: %v", err)
	}
	if reloadedDevice.IsActive {
		t.Fatal("expected device deactivated after completion")
	}

	// Completed is terminal.
	terminal := postJSON(t, app, completePath, nil)
	_ = terminal.Body.Close()
	if terminal.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409 completing twice, got %d", terminal.StatusCode)
	}
}

func TestRejectRequestRequiresReason(t *testing.T) {
	t.Parallel()

	s, db := newTestServer(t)
	donor := createTestUser(t, db, "donor", models.VerificationStatusUnverified, false)
	requester := createTestUser(t, db, "requester", models.VerificationStatusVerified, false)
	admin := createTestUser(t, db, "admin", models.VerificationStatusVerified, true)
	device := createTestDevice(t, db, donor.ID, "Monitor", models.DeviceStatusApproved, true)

	request := models.DeviceRequest{
		DeviceID:    device.ID,
		RequesterID: requester.ID,
		Message:     "need it",
		Status:      models.RequestStatusPending,
	}
	if err := db.Create(&request).Error; err != nil {
		t.Fatalf("create request: %v", err)
	}

	app := newAppAs(admin.ID)
	app.Post("/admin/requests/:id/reject", s.RejectRequest)

	path := fmt.Sprintf("/admin/requests/%d/reject", request.ID)

	resp := postJSON(t, app, path, fiber.Map{"admin_notes": "no reason given"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 without reason, got %d", resp.StatusCode)
	}
	errResp := decodeError(t, resp)
	if errResp.Code != "MISSING_REJECTION_REASON" {
		t.Fatalf("expected MISSING_REJECTION_REASON, got %q", errResp.Code)
	}

	resp2 := postJSON(t, app, path, fiber.Map{"rejection_reason": "out of service area"})
	defer func() { _ = resp2.Body.Close() }()
	if resp2.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 with reason, got %d", resp2.StatusCode)
	}
	var rejected models.DeviceRequest
	if err := json.NewDecoder(resp2.Body).Decode(&rejected); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rejected.Status != models.RequestStatusRejected || rejected.RejectionReason != "out of service area" {
		t.Fatalf("unexpected rejection: %#v", rejected)
	}
}

// A rejected request no longer counts as open, so the same pair can request again.
func TestRequestReopensAfterRejection(t *testing.T) {
	t.Parallel()

	s, db := newTestServer(t)
	donor := createTestUser(t, db, "donor", models.VerificationStatusUnverified, false)
	requester := createTestUser(t, db, "requester", models.VerificationStatusVerified, false)
	device := createTestDevice(t, db, donor.ID, "Keyboard", models.DeviceStatusApproved, true)

	rejected := models.DeviceRequest{
		DeviceID:        device.ID,
		RequesterID:     requester.ID,
		Message:         "first try",
		Status:          models.RequestStatusRejected,
		RejectionReason: "incomplete application",
	}
	if err := db.Create(&rejected).Error; err != nil {
		t.Fatalf("create rejected request: %v", err)
	}

	app := newAppAs(requester.ID)
	app.Post("/devices/:id/requests", s.CreateDeviceRequest)

	resp := postJSON(t, app, fmt.Sprintf("/devices/%d/requests", device.ID), fiber.Map{"message": "second try"})
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201 after rejection, got %d", resp.StatusCode)
	}
}

func TestCancelRequestAuthorization(t *testing.T) {
	t.Parallel()

	s, db := newTestServer(t)
	donor := createTestUser(t, db, "donor", models.VerificationStatusUnverified, false)
	requester := createTestUser(t, db, "requester", models.VerificationStatusVerified, false)
	other := createTestUser(t, db, "other", models.VerificationStatusVerified, false)
	device := createTestDevice(t, db, donor.ID, "Tablet", models.DeviceStatusApproved, true)

	pending := models.DeviceRequest{
		DeviceID:    device.ID,
		RequesterID: requester.ID,
		Message:     "need it",
		Status:      models.RequestStatusPending,
	}
	if err := db.Create(&pending).Error; err != nil {
		t.Fatalf("create request: %v", err)
	}
	approvedRequest := models.DeviceRequest{
		DeviceID:    createTestDevice(t, db, donor.ID, "Tablet 2", models.DeviceStatusApproved, true).ID,
		RequesterID: requester.ID,
		Message:     "need it too",
		Status:      models.RequestStatusApproved,
	}
	if err := db.Create(&approvedRequest).Error; err != nil {
		t.Fatalf("create approved request: %v", err)
	}

	// Non-owner cannot cancel.
	otherApp := newAppAs(other.ID)
	otherApp.Delete("/requests/:id", s.CancelRequest)
	req := httptest.NewRequest(http.MethodDelete, fmt.Sprintf("/requests/%d", pending.ID), nil)
	resp, err := otherApp.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 for non-owner, got %d", resp.StatusCode)
	}

	// Owner cannot cancel a non-pending request.
	ownerApp := newAppAs(requester.ID)
	ownerApp.Delete("/requests/:id", s.CancelRequest)
	req2 := httptest.NewRequest(http.MethodDelete, fmt.Sprintf("/requests/%d", approvedRequest.ID), nil)
	resp2, err := ownerApp.Test(req2)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	_ = resp2.Body.Close()
	if resp2.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409 cancelling approved request, got %d", resp2.StatusCode)
	}

	// Owner cancels the pending request; the record is gone.
	req3 := httptest.NewRequest(http.MethodDelete, fmt.Sprintf("/requests/%d", pending.ID), nil)
	resp3, err := ownerApp.Test(req3)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	_ = resp3.Body.Close()
	if resp3.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp3.StatusCode)
	}

	var count int64
	if err := db.Model(&models.DeviceRequest{}).Where("id = ?", pending.ID).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Fatal("expected cancelled request to be deleted")
	}
}

func TestGetRequestEligibilityEndpoint(t *testing.T) {
	t.Parallel()

	s, db := newTestServer(t)
	donor := createTestUser(t, db, "donor", models.VerificationStatusUnverified, false)
	requester := createTestUser(t, db, "pendinguser", models.VerificationStatusPending, false)
	device := createTestDevice(t, db, donor.ID, "Webcam", models.DeviceStatusApproved, true)

	app := newAppAs(requester.ID)
	app.Get("/devices/:id/requests/eligibility", s.GetRequestEligibility)

	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/devices/%d/requests/eligibility", device.ID), nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var result models.EligibilityResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result.CanRequest || result.Reason != models.ReasonVerificationPending {
		t.Fatalf("expected verification pending denial, got %#v", result)
	}
}

func TestGetMyRequestsPagination(t *testing.T) {
	t.Parallel()

	s, db := newTestServer(t)
	donor := createTestUser(t, db, "donor", models.VerificationStatusUnverified, false)
	requester := createTestUser(t, db, "requester", models.VerificationStatusVerified, false)

	// Mix of open and closed requests across devices.
	statuses := []models.RequestStatus{
		models.RequestStatusPending,
		models.RequestStatusApproved,
		models.RequestStatusRejected,
		models.RequestStatusCompleted,
	}
	for i, status := range statuses {
		device := createTestDevice(t, db, donor.ID,
			fmt.Sprintf("Device %d", i+1), models.DeviceStatusApproved, true)
		request := models.DeviceRequest{
			DeviceID:    device.ID,
			RequesterID: requester.ID,
			Message:     "need it",
			Status:      status,
		}
		if err := db.Create(&request).Error; err != nil {
			t.Fatalf("create request: %v", err)
		}
	}

	app := newAppAs(requester.ID)
	app.Get("/requests/me", s.GetMyRequests)

	req := httptest.NewRequest(http.MethodGet, "/requests/me?page=1&page_size=2", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var page struct {
		Items      []models.DeviceRequest `json:"items"`
		Total      int64                  `json:"total"`
		TotalPages int                    `json:"total_pages"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if page.Total != 4 || page.TotalPages != 2 || len(page.Items) != 2 {
		t.Fatalf("unexpected page: total=%d pages=%d items=%d", page.Total, page.TotalPages, len(page.Items))
	}

	// Status filter narrows the listing.
	req2 := httptest.NewRequest(http.MethodGet, "/requests/me?status=pending", nil)
	resp2, err := app.Test(req2)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer func() { _ = resp2.Body.Close() }()
	if err := json.NewDecoder(resp2.Body).Decode(&page); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if page.Total != 1 {
		t.Fatalf("expected 1 pending request, got %d", page.Total)
	}
}

func TestOwnerReviewsRequest(t *testing.T) {
	t.Parallel()

	s, db := newTestServer(t)
	donor := createTestUser(t, db, "owner-donor", models.VerificationStatusUnverified, false)
	requester := createTestUser(t, db, "owner-requester", models.VerificationStatusVerified, false)
	stranger := createTestUser(t, db, "owner-stranger", models.VerificationStatusVerified, false)
	device := createTestDevice(t, db, donor.ID, "Pixel 7", models.DeviceStatusApproved, true)

	request := models.DeviceRequest{
		DeviceID:    device.ID,
		RequesterID: requester.ID,
		Status:      models.RequestStatusPending,
		Message:     "screen time for homework",
	}
	if err := db.Create(&request).Error; err != nil {
		t.Fatalf("create request: %v", err)
	}

	registerReviewRoutes := func(app *fiber.App) {
		app.Post("/requests/:id/approve", s.ReviewRequestApprove)
		app.Post("/requests/:id/complete", s.ReviewRequestComplete)
	}
	approvePath := fmt.Sprintf("/requests/%d/approve", request.ID)
	completePath := fmt.Sprintf("/requests/%d/complete", request.ID)

	// The requester cannot review their own request.
	requesterApp := newAppAs(requester.ID)
	registerReviewRoutes(requesterApp)
	resp := postJSON(t, requesterApp, approvePath, nil)
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 for requester, got %d", resp.StatusCode)
	}

	// Neither can an unrelated user.
	strangerApp := newAppAs(stranger.ID)
	registerReviewRoutes(strangerApp)
	resp = postJSON(t, strangerApp, approvePath, nil)
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 for stranger, got %d", resp.StatusCode)
	}

	// The device owner drives the same transition path the admin routes use.
	ownerApp := newAppAs(donor.ID)
	registerReviewRoutes(ownerApp)
	resp = postJSON(t, ownerApp, approvePath, fiber.Map{"admin_notes": "pickup saturday"})
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 for owner approve, got %d", resp.StatusCode)
	}

	var approved models.DeviceRequest
	if err := db.First(&approved, request.ID).Error; err != nil {
		t.Fatalf("reload request: %v", err)
	}
	if approved.Status != models.RequestStatusApproved {
		t.Fatalf("expected approved, got %s", approved.Status)
	}
	if approved.ReviewedByID == nil || *approved.ReviewedByID != donor.ID {
		t.Fatalf("expected reviewer %d, got %v", donor.ID, approved.ReviewedByID)
	}

	resp = postJSON(t, ownerApp, completePath, nil)
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 for owner complete, got %d", resp.StatusCode)
	}

	var fulfilled models.Device
	if err := db.First(&fulfilled, device.ID).Error; err != nil {
		t.Fatalf("reload device: %v", err)
	}
	if fulfilled.IsActive {
		t.Fatal("expected device retired after completion")
	}
}
