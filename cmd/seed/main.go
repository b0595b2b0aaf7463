package main

import (
	"context"
	"fmt"

	"rollcall/internal/auth"
	"rollcall/internal/config"
	"rollcall/internal/logging"
	"rollcall/internal/store"
)

// Seeds a development database with a small campus: students, courses with a
// default "1234" credential, weekly schedule windows and registrations.
func main() {
	cfg := config.Load()
	log := logging.New(cfg.LogLevel, cfg.LogPretty)
	ctx := context.Background()

	db, err := store.NewDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("db connect failed")
	}
	defer db.Close()

	if err := store.Migrate(ctx, db.Client); err != nil {
		log.Fatal().Err(err).Msg("migration failed")
	}

	students := [][3]string{
		{"2024001", "Amina Khalid", "amina.khalid@example.com"},
		{"2024002", "Omar Farouk", "student2@uni.edu"},
		{"2024003", "Sarah Ali", "student3@uni.edu"},
		{"2024004", "Youssef Hassan", "student4@uni.edu"},
		{"2024005", "Mariam Adel", ""},
	}
	for _, s := range students {
		if _, err := db.Client.ExecContext(ctx, `
			INSERT INTO students (student_id, name, email) VALUES ($1, $2, NULLIF($3, ''))
			ON CONFLICT (student_id) DO NOTHING
		`, s[0], s[1], s[2]); err != nil {
			log.Fatal().Err(err).Msg("seeding students")
		}
	}

	hash, err := auth.HashPassword("1234")
	if err != nil {
		log.Fatal().Err(err).Msg("hashing default password")
	}
	courses := [][3]string{
		{"CS101", "Intro to AI", "Dr. Smith"},
		{"MATH2", "Linear Algebra", "Dr. Magdy"},
		{"IS300", "Database Systems", "Dr. Hoda"},
	}
	for _, c := range courses {
		if _, err := db.Client.ExecContext(ctx, `
			INSERT INTO courses (course_code, course_name, instructor, password_hash)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (course_code) DO NOTHING
		`, c[0], c[1], c[2], hash); err != nil {
			log.Fatal().Err(err).Msg("seeding courses")
		}
	}

	windows := []struct {
		course, room, day, start, end string
	}{
		{"CS101", "Hall_1", "Monday", "09:00", "10:00"},
		{"MATH2", "Hall_1", "Monday", "10:30", "12:00"},
		{"IS300", "Hall_2", "Monday", "09:00", "10:30"},
		{"CS101", "Hall_1", "Wednesday", "09:00", "10:00"},
		{"MATH2", "Hall_2", "Thursday", "13:00", "14:30"},
	}
	for _, w := range windows {
		if _, err := db.Client.ExecContext(ctx, `
			INSERT INTO lecture_schedule (course_code, room_number, day_of_week, start_time, end_time)
			SELECT $1, $2, $3, $4, $5
			WHERE NOT EXISTS (
				SELECT 1 FROM lecture_schedule
				WHERE course_code = $1 AND room_number = $2 AND day_of_week = $3 AND start_time = $4
			)
		`, w.course, w.room, w.day, w.start, w.end); err != nil {
			log.Fatal().Err(err).Msg("seeding schedule")
		}
	}

	for _, s := range students {
		for _, c := range courses {
			if _, err := db.Client.ExecContext(ctx, `
				INSERT INTO registrations (student_id, course_code) VALUES ($1, $2)
				ON CONFLICT (student_id, course_code) DO NOTHING
			`, s[0], c[0]); err != nil {
				log.Fatal().Err(err).Msg("seeding registrations")
			}
		}
	}

	fmt.Println("seeded: 5 students, 3 courses, 5 schedule windows")
}
