package db

const Schema = `
CREATE TABLE IF NOT EXISTS public.timer_preset
(
    name         VARCHAR(64) PRIMARY KEY,
    description  VARCHAR     NOT NULL DEFAULT '',
    work_seconds INTEGER     NOT NULL CHECK (work_seconds >= 1),
    rest_seconds INTEGER     NOT NULL CHECK (rest_seconds >= 1),
    rounds       INTEGER     NOT NULL CHECK (rounds >= 1),
    sets         INTEGER     NOT NULL CHECK (sets >= 1),
    created_at   TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS public.workout_event
(
    id         SERIAL PRIMARY KEY,
    session_id VARCHAR     NOT NULL,
    type       VARCHAR     NOT NULL,
    data       JSONB       NOT NULL DEFAULT '{}',
    timestamp  TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS ix_workout_event_timestamp ON public.workout_event (timestamp);
CREATE INDEX IF NOT EXISTS ix_workout_event_session_id ON public.workout_event (session_id);
`
