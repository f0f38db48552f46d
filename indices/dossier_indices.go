package indices

import (
	"claimflow/client/es"
	"claimflow/domain"
	"claimflow/session"
	"context"
	"fmt"

	"github.com/fundwit/go-commons/types"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

var (
	DossierIndexName = "dossiers"

	// keeps bulk re-index runs from flooding the search cluster
	indexLimiter = rate.NewLimiter(rate.Limit(50), 10)

	IndexDossiersFunc  = IndexDossiers
	SearchDossiersFunc = SearchDossiers
)

type DossierDocument struct {
	domain.Dossier
}

type BatchActionError map[types.ID]error

func (e BatchActionError) Error() string {
	return fmt.Sprintf("%v", map[types.ID]error(e))
}

func IndexDossiers(records []domain.Dossier) error {
	docs := make([]DossierDocument, 0, len(records))
	for _, record := range records {
		docs = append(docs, DossierDocument{Dossier: record})
	}

	if err := saveDossierDocuments(docs); err != nil {
		return err
	}
	return nil
}

// IndexDossierRecord is the domain packages' best-effort hook: failures
// are logged, never propagated into the triggering operation.
func IndexDossierRecord(dossier *domain.Dossier) {
	if err := IndexDossiersFunc([]domain.Dossier{*dossier}); err != nil {
		logrus.Warnf("index dossier %d failed: %v", dossier.ID, err)
	}
}

// RemoveDossierRecord drops a dossier document from the search index,
// best-effort like IndexDossierRecord. Used when a transfer retires the
// source dossier.
func RemoveDossierRecord(id types.ID) {
	s := &session.Session{Context: context.Background()}
	if err := es.DeleteDocumentByIdFunc(DossierIndexName, id, s); err != nil {
		logrus.Warnf("remove dossier %d from index failed: %v", id, err)
	}
}

func saveDossierDocuments(docs []DossierDocument) BatchActionError {
	errs := BatchActionError{}

	s := &session.Session{Context: context.Background()}
	for _, doc := range docs {
		if err := indexLimiter.Wait(s.Context); err != nil {
			errs[doc.ID] = err
			continue
		}
		if err := es.IndexFunc(DossierIndexName, doc.ID, doc, s); err != nil {
			errs[doc.ID] = err
			logrus.Warnf("index dossier %d %s %s\n", doc.ID, doc.Identifier, err)
		} else {
			logrus.Infof("index dossier %d %s successfully\n", doc.ID, doc.Identifier)
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// SearchDossiers matches name and identifier, scoped to the session's
// visible worlds.
func SearchDossiers(query string, s *session.Session) ([]es.Source, error) {
	visibleWorlds := s.VisibleWorlds()
	if len(visibleWorlds) == 0 {
		return []es.Source{}, nil
	}
	worldIds := make([]string, 0, len(visibleWorlds))
	for _, id := range visibleWorlds {
		worldIds = append(worldIds, id.String())
	}

	esQuery := es.H{
		"query": es.H{
			"bool": es.H{
				"must": es.H{
					"multi_match": es.H{
						"query":  query,
						"fields": []string{"name", "identifier"},
					},
				},
				"filter": es.H{
					"terms": es.H{"worldId": worldIds},
				},
			},
		},
	}

	result, err := es.SearchFunc(DossierIndexName, esQuery, s)
	if err != nil {
		return nil, err
	}
	sources := make([]es.Source, 0, len(result.Hits.Hits))
	for _, hit := range result.Hits.Hits {
		sources = append(sources, hit.Source)
	}
	return sources, nil
}
