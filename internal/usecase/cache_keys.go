package usecase

import (
	"clinic-booking/pkg/cache"

	"github.com/google/uuid"
)

const doctorsListKey = "doctors_list"

func doctorKey(id uuid.UUID) string {
	return cache.Key("doctor", id.String())
}

func slotsKey(doctorID uuid.UUID, date string) string {
	return cache.Key("slots", doctorID.String(), date)
}

func slotsPrefix(doctorID uuid.UUID) string {
	return cache.Key("slots", doctorID.String())
}
