package ingest

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tansive/tansive-inventory/internal/common/uuid"
	"github.com/tansive/tansive-inventory/internal/inventorysrv/bom"
	"github.com/tansive/tansive-inventory/internal/inventorysrv/db"
	"github.com/tansive/tansive-inventory/internal/inventorysrv/db/dberror"
	"github.com/tansive/tansive-inventory/internal/inventorysrv/db/models"
)

// Stats counts what an import did to the project inventory.
type Stats struct {
	ComponentsCreated   int `json:"componentsCreated"`
	ComponentsUpdated   int `json:"componentsUpdated"`
	ComponentsUnchanged int `json:"componentsUnchanged"`
	ComponentsDeleted   int `json:"componentsDeleted"`
	ServicesCreated     int `json:"servicesCreated"`
	ServicesUpdated     int `json:"servicesUpdated"`
	ServicesUnchanged   int `json:"servicesUnchanged"`
	ServicesDeleted     int `json:"servicesDeleted"`
}

// plan is a flattened and de-duplicated document, ready to be reconciled.
type plan struct {
	token       uuid.UUID
	projectUUID uuid.UUID
	doc         *bom.Document

	index          *RefIndex
	componentDedup *Deduplicator[*models.Component]
	serviceDedup   *Deduplicator[*models.Service]
	components     []*models.Component
	services       []*models.Service
}

func newPlan(token, projectUUID uuid.UUID, doc *bom.Document) *plan {
	p := &plan{
		token:       token,
		projectUUID: projectUUID,
		doc:         doc,
		index:       NewRefIndex(),
	}
	p.componentDedup = NewDeduplicator(p.index, ComponentIdentityOf)
	p.serviceDedup = NewDeduplicator(p.index, ServiceIdentityOf)
	p.components = p.componentDedup.Dedupe(Flatten(doc.Components))
	p.services = p.serviceDedup.Dedupe(Flatten(doc.Services))
	return p
}

// engine merges one plan into the persisted project inside a transaction.
type engine struct {
	*plan
	tx       db.Tx
	licenses *LicenseResolver
	internal *InternalMatcher
	outbox   *Outbox
	now      time.Time

	project              *models.Project
	persistentComponents map[models.ComponentIdentity]*models.Component
	persistentServices   map[models.ComponentIdentity]*models.Service
	processed            []*models.Component
	stats                Stats
}

func newEngine(p *plan, tx db.Tx, internal *InternalMatcher, now time.Time) *engine {
	return &engine{
		plan:                 p,
		tx:                   tx,
		licenses:             NewLicenseResolver(tx),
		internal:             internal,
		outbox:               &Outbox{},
		now:                  now,
		persistentComponents: make(map[models.ComponentIdentity]*models.Component),
		persistentServices:   make(map[models.ComponentIdentity]*models.Service),
	}
}

func (e *engine) run(ctx context.Context) error {
	project, err := e.tx.GetProjectByUUID(ctx, e.projectUUID)
	if err != nil {
		if errors.Is(err, dberror.ErrNotFound) {
			return ErrProjectNotFound.Msgf("project %s does not exist", e.projectUUID)
		}
		return err
	}
	e.project = project

	if err := e.processProject(ctx); err != nil {
		return err
	}
	if err := e.processComponents(ctx); err != nil {
		return err
	}
	if err := e.processServices(ctx); err != nil {
		return err
	}
	if err := e.processDependencyGraph(ctx); err != nil {
		return err
	}
	if err := e.recordBomImport(ctx); err != nil {
		return err
	}
	e.queueAnalysis()
	return nil
}

// processProject applies the document metadata to the project. Name,
// version, group and description are never touched.
func (e *engine) processProject(ctx context.Context) error {
	md := e.doc.Metadata
	if !md.Present {
		return nil
	}
	p := e.project
	changes := &models.Changes{}
	models.SetIfChanged(changes, "manufacturer", &p.Manufacturer, md.Manufacturer)
	if md.HasComponent {
		models.SetIfChanged(changes, "author", &p.Author, md.Author)
		models.SetIfChanged(changes, "publisher", &p.Publisher, md.Publisher)
		models.SetIfChanged(changes, "supplier", &p.Supplier, md.ComponentSupplier)
		models.SetIfChanged(changes, "classifier", &p.Classifier, md.Classifier)
		models.SetIfChanged(changes, "external_references", &p.ExternalReferences, md.ExternalReferences)
		if md.Purl != "" {
			models.SetIfChanged(changes, "purl", &p.Purl, md.Purl)
		}
		if md.SwidTagID != "" {
			models.SetIfChanged(changes, "swid_tag_id", &p.SwidTagID, md.SwidTagID)
		}
		p.BomRef = md.BomRef
	}

	changed := !changes.Empty()
	meta, err := e.tx.GetProjectMetadata(ctx, p.ID)
	if err != nil {
		return err
	}
	if meta == nil && (md.Authors != "" || md.Supplier != "") {
		e.tx.CreateProjectMetadata(ctx, &models.ProjectMetadata{
			ProjectID: p.ID,
			Authors:   md.Authors,
			Supplier:  md.Supplier,
		})
		changed = true
	} else if meta != nil {
		metaChanges := &models.Changes{}
		models.SetIfChanged(metaChanges, "authors", &meta.Authors, md.Authors)
		models.SetIfChanged(metaChanges, "supplier", &meta.Supplier, md.Supplier)
		if !metaChanges.Empty() {
			e.tx.UpdateProjectMetadata(ctx, meta, metaChanges)
			changed = true
		}
	}

	if !changed {
		return nil
	}
	e.tx.UpdateProject(ctx, p, changes)
	e.outbox.Add(indexEvent(e.token, p.UUID, IndexUpdate, EntityProject, p.UUID))
	return e.tx.Flush(ctx)
}

func (e *engine) processComponents(ctx context.Context) error {
	refs, err := e.tx.ComponentRefs(ctx, e.project.ID)
	if err != nil {
		return err
	}
	stale := staleSet(refs)

	for _, c := range e.components {
		c.ProjectID = e.project.ID
		c.Internal = e.internal.IsInternal(c.Group, c.Name)
		if err := e.licenses.Resolve(ctx, c); err != nil {
			return err
		}

		existing, err := e.tx.MatchComponent(ctx, e.project.ID, ComponentIdentityOf(c))
		if err != nil {
			return err
		}
		persistent := existing
		if existing == nil {
			c.New = true
			e.tx.CreateComponent(ctx, c)
			persistent = c
			e.stats.ComponentsCreated++
			e.outbox.Add(indexEvent(e.token, e.project.UUID, IndexCreate, EntityComponent, c.UUID))
		} else {
			changes := applyComponentChanges(existing, c)
			if changes.Empty() {
				e.stats.ComponentsUnchanged++
			} else {
				e.tx.UpdateComponent(ctx, existing, changes)
				e.stats.ComponentsUpdated++
			}
			existing.BomRef = c.BomRef
			delete(stale, existing.ID)
			e.outbox.Add(indexEvent(e.token, e.project.UUID, IndexUpdate, EntityComponent, existing.UUID))
		}

		id := ComponentIdentityOf(persistent)
		e.componentDedup.Rebind(persistent.BomRef, id)
		e.persistentComponents[id] = persistent
		e.processed = append(e.processed, persistent)
	}
	if err := e.tx.Flush(ctx); err != nil {
		return err
	}

	if len(stale) == 0 {
		return nil
	}
	ids := sortedIDs(stale)
	e.tx.DeleteComponents(ctx, ids)
	for _, id := range ids {
		e.outbox.Add(indexEvent(e.token, e.project.UUID, IndexDelete, EntityComponent, stale[id]))
	}
	e.stats.ComponentsDeleted = len(ids)
	log.Ctx(ctx).Info().Int("components", len(ids)).Msg("removing components no longer in bom")
	return e.tx.Flush(ctx)
}

func (e *engine) processServices(ctx context.Context) error {
	refs, err := e.tx.ServiceRefs(ctx, e.project.ID)
	if err != nil {
		return err
	}
	stale := staleSet(refs)

	for _, s := range e.services {
		s.ProjectID = e.project.ID
		existing, err := e.tx.MatchService(ctx, e.project.ID, ServiceIdentityOf(s))
		if err != nil {
			return err
		}
		persistent := existing
		if existing == nil {
			s.New = true
			e.tx.CreateService(ctx, s)
			persistent = s
			e.stats.ServicesCreated++
			e.outbox.Add(indexEvent(e.token, e.project.UUID, IndexCreate, EntityService, s.UUID))
		} else {
			changes := applyServiceChanges(existing, s)
			if changes.Empty() {
				e.stats.ServicesUnchanged++
			} else {
				e.tx.UpdateService(ctx, existing, changes)
				e.stats.ServicesUpdated++
			}
			existing.BomRef = s.BomRef
			delete(stale, existing.ID)
			e.outbox.Add(indexEvent(e.token, e.project.UUID, IndexUpdate, EntityService, existing.UUID))
		}

		id := ServiceIdentityOf(persistent)
		e.serviceDedup.Rebind(persistent.BomRef, id)
		e.persistentServices[id] = persistent
	}
	if err := e.tx.Flush(ctx); err != nil {
		return err
	}

	if len(stale) == 0 {
		return nil
	}
	ids := sortedIDs(stale)
	e.tx.DeleteServices(ctx, ids)
	for _, id := range ids {
		e.outbox.Add(indexEvent(e.token, e.project.UUID, IndexDelete, EntityService, stale[id]))
	}
	e.stats.ServicesDeleted = len(ids)
	log.Ctx(ctx).Info().Int("services", len(ids)).Msg("removing services no longer in bom")
	return e.tx.Flush(ctx)
}

func (e *engine) recordBomImport(ctx context.Context) error {
	e.tx.CreateBom(ctx, &models.Bom{
		ProjectID:    e.project.ID,
		Format:       string(e.doc.Format),
		SpecVersion:  e.doc.SpecVersion,
		SerialNumber: e.doc.SerialNumber,
		BomVersion:   e.doc.Version,
		Imported:     e.now,
	})
	changes := &models.Changes{}
	e.project.LastBomImport = e.now
	changes.Set("last_bom_import", e.now)
	models.SetIfChanged(changes, "last_bom_import_format", &e.project.LastBomImportFormat, e.doc.FormatLabel())
	e.tx.UpdateProject(ctx, e.project, changes)
	return e.tx.Flush(ctx)
}

// queueAnalysis adds the downstream analysis work items after the index
// events.
func (e *engine) queueAnalysis() {
	projectUUID := e.project.UUID
	components := make([]uuid.UUID, 0, len(e.processed))
	var fresh []uuid.UUID
	for _, c := range e.processed {
		components = append(components, c.UUID)
		if c.New {
			fresh = append(fresh, c.UUID)
		}
	}
	policy := Event{Kind: EventPolicyEvaluation, ChainID: e.token, ProjectUUID: projectUUID}

	vuln := Event{
		Kind:        EventVulnerabilityAnalysis,
		ChainID:     e.token,
		ProjectUUID: projectUUID,
		Components:  components,
	}
	if len(fresh) > 0 {
		vuln.OnSuccess = append(vuln.OnSuccess, Event{
			Kind:        EventNewVulnerableDependencyAnalysis,
			ChainID:     e.token,
			ProjectUUID: projectUUID,
			Components:  fresh,
		})
	}
	vuln.OnSuccess = append(vuln.OnSuccess, policy)
	e.outbox.Add(vuln)

	e.outbox.Add(Event{
		Kind:        EventRepositoryMetaAnalysis,
		ChainID:     e.token,
		ProjectUUID: projectUUID,
		Components:  components,
		OnSuccess:   []Event{policy},
	})
}

func staleSet(refs []models.EntityRef) map[int64]uuid.UUID {
	stale := make(map[int64]uuid.UUID, len(refs))
	for _, r := range refs {
		stale[r.ID] = r.UUID
	}
	return stale
}

func sortedIDs(m map[int64]uuid.UUID) []int64 {
	ids := make([]int64, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// applyComponentChanges copies the document fields of in onto the persisted
// component and returns the columns that changed.
func applyComponentChanges(p, in *models.Component) *models.Changes {
	c := &models.Changes{}
	models.SetIfChanged(c, "author", &p.Author, in.Author)
	models.SetIfChanged(c, "publisher", &p.Publisher, in.Publisher)
	models.SetIfChanged(c, "supplier", &p.Supplier, in.Supplier)
	models.SetIfChanged(c, "classifier", &p.Classifier, in.Classifier)
	models.SetIfChanged(c, "group_name", &p.Group, in.Group)
	models.SetIfChanged(c, "name", &p.Name, in.Name)
	models.SetIfChanged(c, "version", &p.Version, in.Version)
	models.SetIfChanged(c, "description", &p.Description, in.Description)
	models.SetIfChanged(c, "copyright", &p.Copyright, in.Copyright)
	models.SetIfChanged(c, "cpe", &p.Cpe, in.Cpe)
	models.SetIfChanged(c, "purl", &p.Purl, in.Purl)
	models.SetIfChanged(c, "purl_coordinates", &p.PurlCoordinates, in.PurlCoordinates)
	models.SetIfChanged(c, "swid_tag_id", &p.SwidTagID, in.SwidTagID)

	h, nh := &p.Hashes, in.Hashes
	models.SetIfChanged(c, "md5", &h.MD5, nh.MD5)
	models.SetIfChanged(c, "sha1", &h.SHA1, nh.SHA1)
	models.SetIfChanged(c, "sha256", &h.SHA256, nh.SHA256)
	models.SetIfChanged(c, "sha384", &h.SHA384, nh.SHA384)
	models.SetIfChanged(c, "sha512", &h.SHA512, nh.SHA512)
	models.SetIfChanged(c, "sha3_256", &h.SHA3_256, nh.SHA3_256)
	models.SetIfChanged(c, "sha3_384", &h.SHA3_384, nh.SHA3_384)
	models.SetIfChanged(c, "sha3_512", &h.SHA3_512, nh.SHA3_512)
	models.SetIfChanged(c, "blake2b_256", &h.BLAKE2b256, nh.BLAKE2b256)
	models.SetIfChanged(c, "blake2b_384", &h.BLAKE2b384, nh.BLAKE2b384)
	models.SetIfChanged(c, "blake2b_512", &h.BLAKE2b512, nh.BLAKE2b512)
	models.SetIfChanged(c, "blake3", &h.BLAKE3, nh.BLAKE3)

	models.SetIfChanged(c, "license_id", &p.LicenseID, in.LicenseID)
	p.ResolvedLicense = in.ResolvedLicense
	models.SetIfChanged(c, "license", &p.License, in.License)
	models.SetIfChanged(c, "license_url", &p.LicenseURL, in.LicenseURL)
	models.SetIfChanged(c, "internal", &p.Internal, in.Internal)
	models.SetIfChanged(c, "external_references", &p.ExternalReferences, in.ExternalReferences)
	return c
}

func applyServiceChanges(p, in *models.Service) *models.Changes {
	c := &models.Changes{}
	models.SetIfChanged(c, "description", &p.Description, in.Description)
	models.SetIfChanged(c, "provider", &p.Provider, in.Provider)
	models.SetIfChanged(c, "endpoints", &p.Endpoints, in.Endpoints)
	models.SetIfChanged(c, "authenticated", &p.Authenticated, in.Authenticated)
	models.SetIfChanged(c, "crosses_trust_boundary", &p.CrossesTrustBoundary, in.CrossesTrustBoundary)
	models.SetIfChanged(c, "external_references", &p.ExternalReferences, in.ExternalReferences)
	return c
}
