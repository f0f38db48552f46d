package main

import (
	"claimflow/bizerror"
	"claimflow/client/es"
	"claimflow/client/s3"
	"claimflow/domain"
	"claimflow/domain/dossiers"
	"claimflow/domain/engine"
	"claimflow/domain/transfer"
	"claimflow/indices"
	"claimflow/infra/tracing"
	"claimflow/persistence"
	"claimflow/servehttp"
	"claimflow/session"
	"context"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

const serviceName = "claimflow"

func main() {
	log.Println("service start")

	if tracingCloser := tracing.Bootstrap(serviceName); tracingCloser != nil {
		defer tracingCloser.Close()
	}

	dbConfig, err := persistence.ParseDatabaseConfigFromEnv()
	if err != nil {
		log.Fatalf("parse database config failed %v\n", err)
	}

	// create database (no conflict)
	if dbConfig.DriverType == "mysql" {
		if err := persistence.PrepareMysqlDatabase(dbConfig.DriverArgs); err != nil {
			log.Fatalf("failed to prepare database %v\n", err)
		}
	}

	// connect database
	ds := &persistence.DataSourceManager{DatabaseConfig: dbConfig}
	if err := ds.Start(); err != nil {
		log.Fatalf("database connection failed %v\n", err)
	}
	defer ds.Stop()
	persistence.ActiveDataSourceManager = ds

	// database migration (race condition)
	err = ds.GormDB(context.Background()).AutoMigrate(
		&domain.World{}, &domain.Dossier{}, &domain.ClientInfo{},
		&domain.WorkflowTemplate{}, &domain.WorkflowStep{},
		&domain.DossierWorkflowProgress{}, &domain.DossierWorkflowHistory{},
		&domain.DossierTransfer{}, &domain.Attachment{}, &domain.Notification{}).Error
	if err != nil {
		log.Fatalf("database migration failed %v\n", err)
	}

	s3.Bootstrap()
	es.CreateClientFromEnv()
	engine.IndexDossierFunc = indices.IndexDossierRecord
	dossiers.IndexDossierFunc = indices.IndexDossierRecord
	transfer.IndexDossierFunc = indices.IndexDossierRecord
	transfer.DeindexDossierFunc = indices.RemoveDossierRecord

	r := gin.Default()
	r.Use(bizerror.ErrorHandling(), tracing.TracingIngress())
	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, serviceName)
	})

	securityMiddle := session.SimpleAuthFilter()
	servehttp.RegisterDossierHandler(r, securityMiddle)
	servehttp.RegisterWorkflowStepHandler(r, securityMiddle)
	servehttp.RegisterTransferHandler(r, securityMiddle)

	err = r.Run(":80")
	if err != nil {
		panic(err)
	}
}
