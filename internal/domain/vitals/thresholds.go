package vitals

// normalRange is the inclusive band a vital must fall in to count as normal.
type normalRange struct {
	min, max float64
}

// Normal adult reference ranges.
var normalRanges = map[string]normalRange{
	"temperature":              {36.1, 37.2},
	"heart_rate":               {60, 100},
	"blood_pressure_systolic":  {90, 140},
	"blood_pressure_diastolic": {60, 90},
	"respiratory_rate":         {12, 20},
	"oxygen_saturation":        {95, 100},
}

func isNormal(vital string, value float64) bool {
	r, ok := normalRanges[vital]
	if !ok {
		return true
	}
	return value >= r.min && value <= r.max
}

// Classify derives the patient status from one reading. Critical conditions
// win over warnings; a reading that triggers neither is stable.
func Classify(v *VitalSign) string {
	if isCritical(v) {
		return StatusCritical
	}
	if isWarning(v) {
		return StatusWarning
	}
	return StatusStable
}

func isCritical(v *VitalSign) bool {
	if v.Temperature != nil && (*v.Temperature > 38 || *v.Temperature < 36) {
		return true
	}
	if v.HeartRate != nil && (*v.HeartRate > 110 || *v.HeartRate < 50) {
		return true
	}
	if v.BloodPressureSystolic != nil && (*v.BloodPressureSystolic > 160 || *v.BloodPressureSystolic < 80) {
		return true
	}
	if v.OxygenSaturation != nil && *v.OxygenSaturation < 92 {
		return true
	}
	if v.PainLevel != nil && *v.PainLevel >= 7 {
		return true
	}
	return false
}

func isWarning(v *VitalSign) bool {
	if v.Temperature != nil && (*v.Temperature > 37.5 || *v.Temperature < 36.1) {
		return true
	}
	if v.HeartRate != nil && (*v.HeartRate > 100 || *v.HeartRate < 60) {
		return true
	}
	if v.BloodPressureSystolic != nil && *v.BloodPressureSystolic > 140 {
		return true
	}
	if v.OxygenSaturation != nil && *v.OxygenSaturation < 95 {
		return true
	}
	if v.PainLevel != nil && *v.PainLevel >= 4 {
		return true
	}
	return false
}
