package sqlinline

const QInsertOrphan = `--sql 1b9e6d42-3c7a-4f85-9a2e-5d8c0f7b3e16
insert into prediction_orphans (prediction_id, request, reason, last_error)
values ($1::text, $2::jsonb, $3::text, nullif($4::text, ''))
on conflict (prediction_id) do update set
  reason = excluded.reason,
  last_error = excluded.last_error,
  status = 'pending',
  updated_at = now()
where prediction_orphans.status <> 'resolved';
`

const QClaimOrphan = `--sql 8f2a5c7e-4d1b-4e96-b3a0-7c6e9d2f1b48
with next as (
  select id
  from prediction_orphans
  where status = 'pending' and next_attempt_at <= now()
  order by next_attempt_at
  limit 1
  for update skip locked
)
update prediction_orphans o
set attempts = o.attempts + 1,
    next_attempt_at = now() + interval '5 minutes',
    updated_at = now()
from next
where o.id = next.id
returning o.id::text, o.prediction_id, o.request, o.reason, o.attempts, o.created_at;
`

const QResolveOrphan = `--sql c4e7a1d9-5b2f-4c83-8e6a-3f9d0b7c2a15
update prediction_orphans
set status = 'resolved',
    audio_file_id = nullif($2::text, '')::uuid,
    last_error = null,
    updated_at = now()
where id = $1::uuid;
`

const QFailOrphan = `--sql 6a0d3f8b-9e4c-4b71-a5d2-8c1e7f4b9d36
update prediction_orphans
set status = case when $3::bool then 'failed' else 'pending' end,
    last_error = $2::text,
    next_attempt_at = now() + interval '1 minute' * power(2, least(attempts, 6)),
    updated_at = now()
where id = $1::uuid;
`
