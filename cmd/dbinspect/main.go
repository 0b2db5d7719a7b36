// Package main provides a read-only inspection tool for the catalog database.
//
// Usage:
//
//	DATABASE_PATH=~/Curio/catalog.db go run ./cmd/dbinspect
package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"

	_ "modernc.org/sqlite"
)

func main() {
	dbPath := os.Getenv("DATABASE_PATH")
	if dbPath == "" {
		dbPath = os.ExpandEnv("$HOME/Curio/catalog.db")
	}

	db, err := sql.Open("sqlite", "file:"+dbPath+"?mode=ro")
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	fmt.Println("=== Catalog Inspection ===")
	fmt.Println()

	tables := []string{
		"media",
		"sources",
		"media_sources",
		"external_services",
		"tags",
		"tag_paths",
		"tag_types",
		"media_tags",
		"replicas",
	}
	for _, table := range tables {
		var count int
		if err := db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&count); err != nil {
			log.Fatalf("Failed to count %s: %v", table, err)
		}
		fmt.Printf("%-20s %d\n", table, count)
	}
	fmt.Println()

	// Media with the most replicas.
	rows, err := db.Query(`
		SELECT m.id, m.created_at, COUNT(r.id) AS replicas
		FROM media m
		LEFT JOIN replicas r ON r.medium_id = m.id
		GROUP BY m.id, m.created_at
		ORDER BY replicas DESC, m.created_at DESC
		LIMIT 5`)
	if err != nil {
		log.Fatalf("Failed to query media: %v", err)
	}
	defer rows.Close()

	fmt.Println("Top media by replica count:")
	for rows.Next() {
		var mediumID, createdAt string
		var replicas int
		if err := rows.Scan(&mediumID, &createdAt, &replicas); err != nil {
			log.Fatalf("Failed to scan row: %v", err)
		}
		fmt.Printf("  %s  created=%s  replicas=%d\n", mediumID, createdAt, replicas)
	}
	if err := rows.Err(); err != nil {
		log.Fatalf("Failed to iterate media: %v", err)
	}
	fmt.Println()

	// Tag tree shape.
	var maxDepth sql.NullInt64
	if err := db.QueryRow(`SELECT MAX(distance) FROM tag_paths`).Scan(&maxDepth); err != nil {
		log.Fatalf("Failed to query tag depth: %v", err)
	}
	if maxDepth.Valid {
		fmt.Printf("Deepest tag chain: %d levels\n", maxDepth.Int64)
	} else {
		fmt.Println("No tags present")
	}

	var orphans int
	if err := db.QueryRow(`
		SELECT COUNT(*) FROM replicas r
		LEFT JOIN media m ON m.id = r.medium_id
		WHERE m.id IS NULL`).Scan(&orphans); err != nil {
		log.Fatalf("Failed to query orphans: %v", err)
	}
	if orphans > 0 {
		fmt.Printf("WARNING: %d orphaned replicas\n", orphans)
	}
}
