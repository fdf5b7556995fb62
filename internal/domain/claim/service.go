package claim

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"time"

	"go.uber.org/zap"

	"residence/internal/domain/directory"
)

// Service owns the claim lifecycle: creation, visibility, status
// transitions, deletion and the notification fan-out they trigger.
type Service struct {
	repo   Repository
	dir    Directory
	files  FileStore
	notifs Notifier
	log    *zap.Logger
}

func NewService(repo Repository, dir Directory, files FileStore, notifs Notifier, log *zap.Logger) *Service {
	return &Service{
		repo:   repo,
		dir:    dir,
		files:  files,
		notifs: notifs,
		log:    log,
	}
}

// CreateClaim files a new claim. The reporter must hold an active
// membership for the target apartment. Claim, affected-apartment links
// and photo rows are written in one transaction: a photo-store failure
// leaves no partial claim behind. Notification fan-out runs after the
// transaction commits and never fails the creation.
func (s *Service) CreateClaim(ctx context.Context, reporterID int64, req CreateClaimRequest, photos []*multipart.FileHeader) (*ClaimResponse, error) {
	reporter, err := s.dir.GetResident(ctx, reporterID)
	if err != nil {
		return nil, mapDirectoryErr(err, ErrReporterNotFound)
	}

	apartment, err := s.dir.GetApartment(ctx, req.ApartmentID)
	if err != nil {
		return nil, mapDirectoryErr(err, ErrApartmentNotFound)
	}

	building, err := s.dir.GetBuilding(ctx, apartment.BuildingID)
	if err != nil {
		return nil, err
	}

	// A resident may only file a claim for the apartment they occupy.
	memberships, err := s.dir.ActiveMemberships(ctx, reporterID, building.ID)
	if err != nil {
		return nil, err
	}
	occupant := false
	for _, m := range memberships {
		if m.OccupiesApartment(apartment.ID) {
			occupant = true
			break
		}
	}
	if !occupant {
		return nil, ErrForbidden
	}

	affectedIDs, err := s.validateAffected(ctx, building.ID, apartment.ID, req.AffectedApartmentIDs)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	c := &Claim{
		ApartmentID:           apartment.ID,
		BuildingID:            building.ID,
		ReporterID:            reporter.ID,
		Cause:                 req.Cause,
		Description:           req.Description,
		InsuranceCompany:      req.InsuranceCompany,
		InsurancePolicyNumber: req.InsurancePolicyNumber,
		Status:                StatusPending,
		CreatedAt:             now,
		UpdatedAt:             now,
	}
	c.SetTypes(req.ClaimTypes)

	// Files are written inside the row transaction so a store failure
	// aborts everything; already-written files are cleaned up after a
	// rollback.
	var uploaded []string
	err = s.repo.CreateGraph(ctx, c, affectedIDs, func(claimID int64) ([]*Photo, error) {
		prefix := fmt.Sprintf("claims/%d", claimID)
		out := make([]*Photo, 0, len(photos))
		for i, fh := range photos {
			url, err := s.files.Save(ctx, prefix, fh)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrUpload, err)
			}
			uploaded = append(uploaded, url)
			out = append(out, &Photo{
				ClaimID:    claimID,
				URL:        url,
				PhotoOrder: i,
				CreatedAt:  now,
			})
		}
		return out, nil
	})
	if err != nil {
		for _, url := range uploaded {
			if rmErr := s.files.Remove(ctx, url); rmErr != nil {
				s.log.Warn("orphaned claim photo after rollback",
					zap.String("url", url), zap.Error(rmErr))
			}
		}
		return nil, err
	}

	s.fanOutCreated(ctx, c, apartment, affectedIDs)

	return s.toResponse(ctx, c, reporter, apartment, building)
}

// GetClaimsByBuilding lists a building's claims, newest first. Building
// admins and managers see everything; other residents only see claims
// they reported, claims on their apartment, or claims affecting it.
func (s *Service) GetClaimsByBuilding(ctx context.Context, buildingID, callerID int64) ([]*ClaimResponse, error) {
	if _, err := s.dir.GetBuilding(ctx, buildingID); err != nil {
		return nil, err
	}

	elevated, err := s.dir.HasRole(ctx, callerID, buildingID, directory.RoleAdmin, directory.RoleManager)
	if err != nil {
		return nil, err
	}

	var claims []*Claim
	if elevated {
		claims, err = s.repo.ListByBuilding(ctx, buildingID)
	} else {
		claims, err = s.repo.ListVisible(ctx, buildingID, callerID)
	}
	if err != nil {
		return nil, err
	}

	out := make([]*ClaimResponse, 0, len(claims))
	for _, c := range claims {
		resp, err := s.toResponse(ctx, c, nil, nil, nil)
		if err != nil {
			return nil, err
		}
		out = append(out, resp)
	}
	return out, nil
}

// GetClaim returns one claim if the caller may see it: the reporter, an
// occupant of the claim's or an affected apartment, or a building
// admin/manager.
func (s *Service) GetClaim(ctx context.Context, claimID, callerID int64) (*ClaimResponse, error) {
	c, err := s.repo.GetByID(ctx, claimID)
	if err != nil {
		return nil, err
	}

	visible, err := s.canView(ctx, c, callerID)
	if err != nil {
		return nil, err
	}
	if !visible {
		return nil, ErrForbidden
	}

	return s.toResponse(ctx, c, nil, nil, nil)
}

// UpdateStatus transitions a claim. Only building admins and managers
// may do this. The reporter is notified best-effort.
func (s *Service) UpdateStatus(ctx context.Context, claimID, callerID int64, status string) (*ClaimResponse, error) {
	parsed, err := ParseStatus(status)
	if err != nil {
		return nil, err
	}

	c, err := s.repo.GetByID(ctx, claimID)
	if err != nil {
		return nil, err
	}

	elevated, err := s.dir.HasRole(ctx, callerID, c.BuildingID, directory.RoleAdmin, directory.RoleManager)
	if err != nil {
		return nil, err
	}
	if !elevated {
		return nil, ErrForbidden
	}

	if err := s.repo.UpdateStatus(ctx, claimID, parsed); err != nil {
		return nil, err
	}
	c.Status = parsed
	c.UpdatedAt = time.Now()

	if err := s.notifs.ClaimStatusChanged(ctx, c.ReporterID, c.BuildingID, c.ID, string(parsed)); err != nil {
		s.log.Warn("claim status notification failed",
			zap.Int64("claim_id", c.ID), zap.Error(err))
	}

	return s.toResponse(ctx, c, nil, nil, nil)
}

// DeleteClaim removes a claim with its links and photos. Allowed for the
// original reporter and for building admins/managers. Already-sent
// notifications stay.
func (s *Service) DeleteClaim(ctx context.Context, claimID, callerID int64) error {
	c, err := s.repo.GetByID(ctx, claimID)
	if err != nil {
		return err
	}

	if c.ReporterID != callerID {
		elevated, err := s.dir.HasRole(ctx, callerID, c.BuildingID, directory.RoleAdmin, directory.RoleManager)
		if err != nil {
			return err
		}
		if !elevated {
			return ErrForbidden
		}
	}

	return s.repo.Delete(ctx, claimID)
}

// validateAffected checks every affected apartment exists and sits in
// the claim's building, drops the claim's own apartment and duplicates.
func (s *Service) validateAffected(ctx context.Context, buildingID, claimApartmentID int64, ids []int64) ([]int64, error) {
	seen := make(map[int64]bool, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if id == claimApartmentID || seen[id] {
			continue
		}
		apt, err := s.dir.GetApartment(ctx, id)
		if err != nil {
			return nil, mapDirectoryErr(err, ErrApartmentNotFound)
		}
		if apt.BuildingID != buildingID {
			return nil, ErrCrossBuilding
		}
		seen[id] = true
		out = append(out, id)
	}
	return out, nil
}

// fanOutCreated sends CLAIM_NEW to every building admin and
// CLAIM_AFFECTED to every occupant of an affected apartment except the
// reporter. Each recipient gets at most one notification of each kind.
// Failures are logged, never surfaced: the claim is already committed.
func (s *Service) fanOutCreated(ctx context.Context, c *Claim, apartment *directory.Apartment, affectedIDs []int64) {
	admins, err := s.dir.AdminMemberships(ctx, c.BuildingID)
	if err != nil {
		s.log.Warn("claim fan-out: admin lookup failed",
			zap.Int64("claim_id", c.ID), zap.Error(err))
	} else {
		notified := make(map[int64]bool, len(admins))
		for _, m := range admins {
			if notified[m.ResidentID] {
				continue
			}
			notified[m.ResidentID] = true
			if err := s.notifs.ClaimFiled(ctx, m.ResidentID, c.BuildingID, c.ID, apartment.Number); err != nil {
				s.log.Warn("claim fan-out: admin notification failed",
					zap.Int64("claim_id", c.ID),
					zap.Int64("resident_id", m.ResidentID),
					zap.Error(err))
			}
		}
	}

	notified := make(map[int64]bool)
	for _, aptID := range affectedIDs {
		residents, err := s.dir.ApartmentResidents(ctx, c.BuildingID, aptID)
		if err != nil {
			s.log.Warn("claim fan-out: occupant lookup failed",
				zap.Int64("claim_id", c.ID),
				zap.Int64("apartment_id", aptID),
				zap.Error(err))
			continue
		}
		for _, m := range residents {
			if m.ResidentID == c.ReporterID || notified[m.ResidentID] {
				continue
			}
			notified[m.ResidentID] = true
			if err := s.notifs.ApartmentAffected(ctx, m.ResidentID, c.BuildingID, c.ID, apartment.Number); err != nil {
				s.log.Warn("claim fan-out: occupant notification failed",
					zap.Int64("claim_id", c.ID),
					zap.Int64("resident_id", m.ResidentID),
					zap.Error(err))
			}
		}
	}
}

// canView mirrors the list visibility rule for a single claim.
func (s *Service) canView(ctx context.Context, c *Claim, callerID int64) (bool, error) {
	if c.ReporterID == callerID {
		return true, nil
	}

	elevated, err := s.dir.HasRole(ctx, callerID, c.BuildingID, directory.RoleAdmin, directory.RoleManager)
	if err != nil {
		return false, err
	}
	if elevated {
		return true, nil
	}

	memberships, err := s.dir.ActiveMemberships(ctx, callerID, c.BuildingID)
	if err != nil {
		return false, err
	}
	affectedIDs, err := s.repo.AffectedApartmentIDs(ctx, c.ID)
	if err != nil {
		return false, err
	}

	for _, m := range memberships {
		if m.OccupiesApartment(c.ApartmentID) {
			return true, nil
		}
		for _, aptID := range affectedIDs {
			if m.OccupiesApartment(aptID) {
				return true, nil
			}
		}
	}
	return false, nil
}

// toResponse builds the claim view. Entities already loaded by the
// caller can be passed in to avoid re-fetching; nil means look them up.
func (s *Service) toResponse(ctx context.Context, c *Claim, reporter *directory.Resident, apartment *directory.Apartment, building *directory.Building) (*ClaimResponse, error) {
	var err error
	if reporter == nil {
		if reporter, err = s.dir.GetResident(ctx, c.ReporterID); err != nil {
			return nil, err
		}
	}
	if apartment == nil {
		if apartment, err = s.dir.GetApartment(ctx, c.ApartmentID); err != nil {
			return nil, err
		}
	}
	if building == nil {
		if building, err = s.dir.GetBuilding(ctx, c.BuildingID); err != nil {
			return nil, err
		}
	}

	affectedIDs, err := s.repo.AffectedApartmentIDs(ctx, c.ID)
	if err != nil {
		return nil, err
	}

	photos, err := s.repo.Photos(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	photoViews := make([]*PhotoResponse, 0, len(photos))
	for _, p := range photos {
		photoViews = append(photoViews, &PhotoResponse{
			ID:         p.ID,
			URL:        p.URL,
			PhotoOrder: p.PhotoOrder,
			CreatedAt:  p.CreatedAt,
		})
	}

	return &ClaimResponse{
		ID:                    c.ID,
		ApartmentID:           apartment.ID,
		ApartmentNumber:       apartment.Number,
		BuildingID:            building.ID,
		BuildingName:          building.Name,
		ReporterID:            reporter.ID,
		ReporterName:          reporter.FullName(),
		ReporterAvatar:        reporter.AvatarURL,
		ClaimTypes:            c.Types(),
		Cause:                 c.Cause,
		Description:           c.Description,
		InsuranceCompany:      c.InsuranceCompany,
		InsurancePolicyNumber: c.InsurancePolicyNumber,
		Status:                string(c.Status),
		AffectedApartmentIDs:  affectedIDs,
		Photos:                photoViews,
		CreatedAt:             c.CreatedAt,
		UpdatedAt:             c.UpdatedAt,
	}, nil
}

// mapDirectoryErr converts directory not-found sentinels to this
// package's taxonomy, leaving infrastructure errors untouched.
func mapDirectoryErr(err error, notFound error) error {
	switch {
	case errors.Is(err, directory.ErrApartmentNotFound),
		errors.Is(err, directory.ErrResidentNotFound),
		errors.Is(err, directory.ErrBuildingNotFound):
		return notFound
	}
	return err
}
