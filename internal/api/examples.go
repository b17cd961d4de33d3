package api

// FormatExamples returns one minimal payload per accepted webhook format.
// It is attached to 400 responses so senders can see what is expected.
func FormatExamples() map[string]interface{} {
	return map[string]interface{}{
		"canonical": map[string]interface{}{
			"title":     "Database connection lost",
			"source":    "orders-api",
			"severity":  "critical",
			"message":   "Connection pool exhausted after 30s",
			"timestamp": 1700000000000,
		},
		"grafana": map[string]interface{}{
			"receiver":    "alert-relay",
			"status":      "firing",
			"externalURL": "https://grafana.example.com/",
			"alerts": []interface{}{
				map[string]interface{}{
					"status":      "firing",
					"labels":      map[string]interface{}{"alertname": "HighCPU", "instance": "web-01"},
					"annotations": map[string]interface{}{"summary": "CPU above 90%"},
					"startsAt":    "2024-01-15T10:30:00Z",
				},
			},
		},
		"prometheus": map[string]interface{}{
			"groupKey": "{}:{alertname=\"HighMemory\"}",
			"status":   "firing",
			"alerts": []interface{}{
				map[string]interface{}{
					"labels":      map[string]interface{}{"alertname": "HighMemory", "severity": "warning"},
					"annotations": map[string]interface{}{"description": "Memory above 90%"},
				},
			},
		},
		"zabbix": map[string]interface{}{
			"trigger": map[string]interface{}{"name": "Disk full", "priority": "4"},
			"event":   map[string]interface{}{"value": "1", "clock": "1700000000"},
			"host":    map[string]interface{}{"name": "db-01"},
		},
		"generic": map[string]interface{}{
			"title":   "Backup failed",
			"service": "backup-job",
			"message": "Nightly backup exited with code 2",
			"level":   "error",
		},
	}
}
